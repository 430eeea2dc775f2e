package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/schema"
)

// Memory is an in-process Store. Records are listed in insertion order.
type Memory struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	records map[uuid.UUID]*Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[uuid.UUID]*Record)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Save(_ context.Context, records []schema.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	date := today()
	for _, fields := range records {
		rec := &Record{ID: uuid.New(), Fields: fields, DateAdded: date}
		m.records[rec.ID] = rec
		m.order = append(m.order, rec.ID)
	}
	return len(records), nil
}

func (m *Memory) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.order))
	for _, id := range m.order {
		rec := *m.records[id]
		out = append(out, &rec)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) Update(_ context.Context, id uuid.UUID, fields map[schema.Field]*string) error {
	if err := validateFields(fields); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	for f, v := range fields {
		rec.Fields.Set(f, v)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.records, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) UpdateMany(_ context.Context, ids []uuid.UUID, fields map[schema.Field]*string) (int, error) {
	if err := validateFields(fields); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range uniqueIDs(ids) {
		rec, ok := m.records[id]
		if !ok {
			continue
		}
		for f, v := range fields {
			rec.Fields.Set(f, v)
		}
		n++
	}
	return n, nil
}

func (m *Memory) DeleteMany(_ context.Context, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			drop[id] = true
			delete(m.records, id)
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	kept := m.order[:0]
	for _, id := range m.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return len(drop), nil
}

func (m *Memory) DropAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.order)
	m.order = nil
	m.records = make(map[uuid.UUID]*Record)
	return n, nil
}
