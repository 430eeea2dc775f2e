// Package importer runs the upload, map and commit workflow for AVL files.
package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/engine"
	"avlmap/pkg/mapping"
	"avlmap/pkg/parser"
	"avlmap/pkg/report"
	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

// Options controls parsing and previews.
type Options struct {
	Sheet       string
	SampleSize  int
	SampleWidth int
}

// Upload is one uploaded file and its mapping session.
type Upload struct {
	ID        uuid.UUID
	Name      string
	Encoding  string
	Warnings  []parser.ParseWarning
	CreatedAt time.Time

	mu      sync.Mutex
	session *mapping.Session
}

// Info is a copy of an upload's metadata.
type Info struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	Encoding  string                `json:"encoding"`
	Warnings  []parser.ParseWarning `json:"warnings"`
	CreatedAt time.Time             `json:"createdAt"`
}

// info must be called with u.mu held.
func (u *Upload) info() Info {
	return Info{
		ID:        u.ID,
		Name:      u.Name,
		Encoding:  u.Encoding,
		Warnings:  append([]parser.ParseWarning(nil), u.Warnings...),
		CreatedAt: u.CreatedAt,
	}
}

// Session returns the upload's mapping session. Callers outside Do must not
// mutate it.
func (u *Upload) Session() *mapping.Session {
	return u.session
}

// Importer keeps the open uploads and commits them to a store. It is safe
// for concurrent use; work on one upload is serialized.
type Importer struct {
	store  store.Store
	opts   Options
	logger *zap.Logger

	mu      sync.RWMutex
	uploads map[uuid.UUID]*Upload
}

// New creates an importer writing to st.
func New(st store.Store, opts Options, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		store:   st,
		opts:    opts,
		logger:  logger.Named("importer"),
		uploads: make(map[uuid.UUID]*Upload),
	}
}

// Upload parses a file by its extension and opens a fresh mapping session
// for it.
func (im *Importer) Upload(name string, data []byte) (*Upload, error) {
	parsed, err := parser.Parse(name, data, im.opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	session, err := mapping.New(parsed.Table, im.logger)
	if err != nil {
		return nil, err
	}

	u := &Upload{
		ID:        uuid.New(),
		Name:      name,
		Encoding:  parsed.Encoding,
		Warnings:  parsed.Warnings,
		CreatedAt: time.Now().UTC(),
		session:   session,
	}

	im.mu.Lock()
	im.uploads[u.ID] = u
	im.mu.Unlock()

	im.logger.Info("Opened upload",
		zap.String("upload_id", u.ID.String()),
		zap.String("name", name),
		zap.String("encoding", parsed.Encoding),
		zap.Int("rows", parsed.Table.RowCount()),
		zap.Int("columns", parsed.Table.Len()),
		zap.Int("warnings", len(parsed.Warnings)))
	return u, nil
}

// Replace loads a new file into an existing upload. The session is reset so
// no entry survives onto the new table.
func (im *Importer) Replace(id uuid.UUID, name string, data []byte) (*Upload, error) {
	parsed, err := parser.Parse(name, data, im.opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	var u *Upload
	err = im.Do(id, func(up *Upload) error {
		if err := up.session.Load(parsed.Table); err != nil {
			return err
		}
		up.Name = name
		up.Encoding = parsed.Encoding
		up.Warnings = parsed.Warnings
		u = up
		return nil
	})
	if err != nil {
		return nil, err
	}

	im.logger.Info("Replaced upload",
		zap.String("upload_id", id.String()),
		zap.String("name", name),
		zap.Int("rows", parsed.Table.RowCount()))
	return u, nil
}

// Get returns the upload with id.
func (im *Importer) Get(id uuid.UUID) (*Upload, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	u, ok := im.uploads[id]
	if !ok {
		return nil, fmt.Errorf("upload %s: %w", id, apperrors.ErrNoSession)
	}
	return u, nil
}

// Do runs fn with exclusive access to the upload with id.
func (im *Importer) Do(id uuid.UUID, fn func(*Upload) error) error {
	u, err := im.Get(id)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(u)
}

// Discard forgets the upload with id.
func (im *Importer) Discard(id uuid.UUID) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.uploads[id]; !ok {
		return fmt.Errorf("upload %s: %w", id, apperrors.ErrNoSession)
	}
	delete(im.uploads, id)
	return nil
}

// Status returns the mapping status of the upload with id.
func (im *Importer) Status(id uuid.UUID) (*report.MappingStatus, error) {
	_, status, err := im.Snapshot(id)
	return status, err
}

// Snapshot returns the metadata and mapping status of the upload with id,
// both read under the upload's lock.
func (im *Importer) Snapshot(id uuid.UUID) (Info, *report.MappingStatus, error) {
	var (
		info   Info
		status *report.MappingStatus
	)
	err := im.Do(id, func(u *Upload) error {
		info = u.info()
		status = report.BuildStatus(u.session, report.Options{
			SampleSize:  im.opts.SampleSize,
			SampleWidth: im.opts.SampleWidth,
		})
		return nil
	})
	return info, status, err
}

// Preview reconciles the mapped upload against the stored AVL without
// saving anything.
func (im *Importer) Preview(ctx context.Context, id uuid.UUID) (*report.ImportReport, error) {
	var rep *report.ImportReport
	err := im.Do(id, func(u *Upload) error {
		records, err := im.canonicalRecords(u)
		if err != nil {
			return err
		}
		result, err := im.reconcile(ctx, records)
		if err != nil {
			return err
		}
		rep = report.BuildImportReport(records, result, 0)
		return nil
	})
	return rep, err
}

// Commit applies a complete mapping, reconciles the rows against the stored
// AVL and saves them. It returns mapping.ErrIncompleteMapping, naming the
// unmapped fields, when the mapping does not cover every canonical field.
func (im *Importer) Commit(ctx context.Context, id uuid.UUID) (*report.ImportReport, error) {
	var rep *report.ImportReport
	err := im.Do(id, func(u *Upload) error {
		records, err := im.canonicalRecords(u)
		if err != nil {
			return err
		}
		result, err := im.reconcile(ctx, records)
		if err != nil {
			return err
		}
		saved, err := im.store.Save(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to save AVL records: %w", err)
		}
		rep = report.BuildImportReport(records, result, saved)

		im.logger.Info("Committed upload",
			zap.String("upload_id", u.ID.String()),
			zap.String("name", u.Name),
			zap.Int("saved", saved),
			zap.Int("matched", rep.TotalMatched),
			zap.Int("new", rep.TotalNew))
		return nil
	})
	return rep, err
}

// canonicalRecords validates and applies the session of u.
func (im *Importer) canonicalRecords(u *Upload) ([]schema.Record, error) {
	if res := u.session.Validate(); !res.Valid {
		return nil, fmt.Errorf("%w: unmapped %q", mapping.ErrIncompleteMapping, res.Unmapped)
	}
	out, err := u.session.Apply()
	if err != nil {
		return nil, err
	}
	return store.RecordsFromTable(out), nil
}

func (im *Importer) reconcile(ctx context.Context, records []schema.Record) (*engine.ReconcileResult, error) {
	existing, err := im.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list AVL records: %w", err)
	}
	return engine.Reconcile(engine.BuildIndex(existing), records), nil
}
