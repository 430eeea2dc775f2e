package mapping

import (
	"fmt"

	"go.uber.org/zap"

	"avlmap/pkg/schema"
	"avlmap/pkg/table"
)

// Session is the mapping state for one uploaded source table. It is owned by
// a single caller and is not safe for concurrent use.
//
// Invariants: a source column maps to at most one canonical field and a
// canonical field is claimed by at most one source column.
type Session struct {
	src     *table.Table
	entries map[string]schema.Field
	claims  map[schema.Field]string

	validated bool
	complete  bool

	logger *zap.Logger
}

// New starts a session for src.
func New(src *table.Table, logger *zap.Logger) (*Session, error) {
	if src == nil {
		return nil, ErrNoSourceTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		src:    src,
		logger: logger.Named("mapping"),
	}
	s.Reset()
	return s, nil
}

// Table returns the source table the session maps.
func (s *Session) Table() *table.Table {
	return s.src
}

// Load replaces the source table and resets the session. A new upload must go
// through Load so old claims never leak onto a different table.
func (s *Session) Load(src *table.Table) error {
	if src == nil {
		return ErrNoSourceTable
	}
	s.src = src
	s.Reset()
	return nil
}

// Reset removes every entry and clears the validated and complete flags.
func (s *Session) Reset() {
	s.entries = make(map[string]schema.Field)
	s.claims = make(map[schema.Field]string)
	s.validated = false
	s.complete = false
}

// Set maps source to f, replacing any existing entry for source. An empty f
// clears the entry. Set rejects f with ErrDuplicateClaim when another source
// column already claims it; the existing claim is left untouched.
func (s *Session) Set(source string, f schema.Field) error {
	if !s.src.Has(source) {
		return fmt.Errorf("%q: %w", source, ErrUnknownSourceColumn)
	}
	if f == "" {
		s.Clear(source)
		return nil
	}
	if !schema.IsCanonical(f) {
		return fmt.Errorf("%q: %w", f, ErrUnknownField)
	}
	if owner, ok := s.claims[f]; ok && owner != source {
		return fmt.Errorf("%q already mapped from %q: %w", f, owner, ErrDuplicateClaim)
	}

	if prev, ok := s.entries[source]; ok {
		if prev == f {
			return nil
		}
		delete(s.claims, prev)
	}
	s.entries[source] = f
	s.claims[f] = source
	s.changed()

	s.logger.Debug("Mapped column",
		zap.String("source", source),
		zap.String("field", string(f)))
	return nil
}

// Clear removes the entry for source, if any.
func (s *Session) Clear(source string) {
	f, ok := s.entries[source]
	if !ok {
		return
	}
	delete(s.entries, source)
	delete(s.claims, f)
	s.changed()
}

// AutoMap suggests a canonical field for every source column that has no
// entry yet, in source column order. Existing entries are never replaced.
// It returns the entries it added.
func (s *Session) AutoMap() []Entry {
	var pending []string
	for _, source := range s.src.Names() {
		if _, ok := s.entries[source]; !ok {
			pending = append(pending, source)
		}
	}

	inferred := schema.InferMappings(pending, func(f schema.Field) bool {
		_, claimed := s.claims[f]
		return claimed
	})

	var added []Entry
	for _, source := range pending {
		f, ok := inferred[source]
		if !ok {
			continue
		}
		s.entries[source] = f
		s.claims[f] = source
		added = append(added, Entry{Source: source, Field: f})
	}

	if len(added) > 0 {
		s.changed()
	}
	s.logger.Debug("Auto-mapped columns",
		zap.Int("added", len(added)),
		zap.Int("total_entries", len(s.entries)))
	return added
}

// Field returns the canonical field mapped from source.
func (s *Session) Field(source string) (schema.Field, bool) {
	f, ok := s.entries[source]
	return f, ok
}

// Claimant returns the source column claiming f.
func (s *Session) Claimant(f schema.Field) (string, bool) {
	source, ok := s.claims[f]
	return source, ok
}

// Entries returns the current entries in source column order.
func (s *Session) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, source := range s.src.Names() {
		if f, ok := s.entries[source]; ok {
			out = append(out, Entry{Source: source, Field: f})
		}
	}
	return out
}

// Mapping returns a copy of the current entries.
func (s *Session) Mapping() Mapping {
	m := make(Mapping, len(s.entries))
	for source, f := range s.entries {
		m[source] = f
	}
	return m
}

// Options lists the canonical fields source may be mapped to: every field not
// claimed by a different source column, in registry order.
func (s *Session) Options(source string) []schema.Field {
	out := make([]schema.Field, 0, schema.FieldCount)
	for _, f := range schema.Fields() {
		if owner, ok := s.claims[f]; ok && owner != source {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Samples returns display samples for a source column.
func (s *Session) Samples(source string, n, width int) []string {
	col, ok := s.src.Column(source)
	if !ok {
		return nil
	}
	return schema.SampleValues(col.Values, n, width)
}

// Validate checks the current entries.
func (s *Session) Validate() Result {
	return Validate(s.entries)
}

// Validated reports whether every canonical field is currently claimed.
func (s *Session) Validated() bool {
	return s.validated
}

// Complete reports whether the current mapping has been applied.
func (s *Session) Complete() bool {
	return s.complete
}

// Apply projects the source table through the current entries and marks the
// session complete. Like the package-level Apply it does not require a valid
// mapping; unclaimed fields come out as nil columns.
func (s *Session) Apply() (*table.Table, error) {
	out, err := Apply(s.src, s.entries)
	if err != nil {
		return nil, err
	}
	s.complete = true
	s.logger.Info("Applied column mapping",
		zap.Int("rows", out.RowCount()),
		zap.Int("mapped_fields", len(s.claims)),
		zap.Bool("valid", s.validated))
	return out, nil
}

// changed refreshes the derived flags after a mutation. An applied table no
// longer reflects the entries once they change.
func (s *Session) changed() {
	s.validated = len(s.claims) == schema.FieldCount
	s.complete = false
}
