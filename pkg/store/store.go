// Package store persists canonical AVL records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/schema"
	"avlmap/pkg/table"
)

// DateLayout is the format of Record.DateAdded.
const DateLayout = "2006-01-02"

// Record is a stored AVL row.
type Record struct {
	ID        uuid.UUID     `json:"id"`
	Fields    schema.Record `json:"-"`
	DateAdded string        `json:"dateAdded"`
}

// Values returns the record's fields keyed by canonical name, for display.
func (r *Record) Values() map[schema.Field]*string {
	out := make(map[schema.Field]*string, schema.FieldCount)
	for i, f := range schema.Fields() {
		out[f] = r.Fields[i]
	}
	return out
}

// MarshalJSON renders the fields as an object keyed by canonical name.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        uuid.UUID                `json:"id"`
		Fields    map[schema.Field]*string `json:"fields"`
		DateAdded string                   `json:"dateAdded"`
	}{r.ID, r.Values(), r.DateAdded})
}

// Store is the AVL record sink.
type Store interface {
	// Save stores records, assigning ids and the date added, and returns the
	// number of records written.
	Save(ctx context.Context, records []schema.Record) (int, error)
	List(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// Update overwrites the given fields of one record.
	Update(ctx context.Context, id uuid.UUID, fields map[schema.Field]*string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdateMany overwrites the given fields of every listed record and
	// returns how many records were updated. Unknown ids are ignored.
	UpdateMany(ctx context.Context, ids []uuid.UUID, fields map[schema.Field]*string) (int, error)
	// DeleteMany removes the listed records and returns how many were
	// removed. Unknown ids are ignored.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error)
	// DropAll removes every record and returns how many were removed.
	DropAll(ctx context.Context) (int, error)
}

// RecordsFromTable converts a canonical table into records. Headers are
// matched case-insensitively; columns that are not canonical are ignored and
// canonical fields without a column stay empty. Values go through
// schema.CleanValue.
func RecordsFromTable(t *table.Table) []schema.Record {
	cols := make([][]any, schema.FieldCount)
	for _, c := range t.Columns() {
		f, ok := schema.CanonicalizeHeader(c.Name)
		if !ok {
			continue
		}
		if i := schema.Index(f); cols[i] == nil {
			cols[i] = c.Values
		}
	}

	out := make([]schema.Record, t.RowCount())
	for r := range out {
		for i, values := range cols {
			if values != nil {
				out[r][i] = schema.CleanValue(values[r])
			}
		}
	}
	return out
}

func validateFields(fields map[schema.Field]*string) error {
	for f := range fields {
		if !schema.IsCanonical(f) {
			return fmt.Errorf("%q: %w", f, apperrors.ErrInvalidField)
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func today() string {
	return time.Now().Format(DateLayout)
}
