// Package mapping reconciles an arbitrary source table against the canonical
// AVL schema: it holds the per-upload mapping session, validates that every
// canonical field is claimed and projects the source table into canonical
// shape.
package mapping

import (
	"fmt"

	"avlmap/pkg/schema"
	"avlmap/pkg/table"
)

// Mapping associates source column names with canonical fields.
type Mapping map[string]schema.Field

// Entry is one source column -> canonical field association.
type Entry struct {
	Source string       `json:"source" yaml:"source"`
	Field  schema.Field `json:"field" yaml:"field"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid    bool           `json:"valid"`
	Unmapped []schema.Field `json:"unmapped"`
}

// Destinations returns the distinct canonical fields claimed by m.
func (m Mapping) Destinations() map[schema.Field]bool {
	out := make(map[schema.Field]bool, len(m))
	for _, f := range m {
		out[f] = true
	}
	return out
}

// Validate reports whether every canonical field is the destination of at
// least one entry. Unmapped lists the missing fields in registry order.
// It has no side effects.
func Validate(m Mapping) Result {
	mapped := m.Destinations()
	unmapped := make([]schema.Field, 0, schema.FieldCount)
	for _, f := range schema.Fields() {
		if !mapped[f] {
			unmapped = append(unmapped, f)
		}
	}
	return Result{
		Valid:    len(unmapped) == 0,
		Unmapped: unmapped,
	}
}

// Apply projects src through m into a table with exactly the canonical
// columns, in registry order, and the same row count as src. Claimed columns
// are copied verbatim; unclaimed canonical fields are filled with nil.
//
// Apply does not require m to be valid. It fails when m names a column src
// does not have (ErrStaleMapping), targets a non-canonical field, or claims a
// field twice.
func Apply(src *table.Table, m Mapping) (*table.Table, error) {
	if src == nil {
		return nil, ErrNoSourceTable
	}

	claimant := make(map[schema.Field]string, len(m))
	for source, f := range m {
		if !schema.IsCanonical(f) {
			return nil, fmt.Errorf("%q -> %q: %w", source, f, ErrUnknownField)
		}
		if !src.Has(source) {
			return nil, fmt.Errorf("source column %q: %w", source, ErrStaleMapping)
		}
		if prev, ok := claimant[f]; ok {
			return nil, fmt.Errorf("%q claimed by %q and %q: %w", f, prev, source, ErrDuplicateClaim)
		}
		claimant[f] = source
	}

	rows := src.RowCount()
	columns := make([]table.Column, 0, schema.FieldCount)
	for _, f := range schema.Fields() {
		values := make([]any, rows)
		if source, ok := claimant[f]; ok {
			col, _ := src.Column(source)
			copy(values, col.Values)
		}
		columns = append(columns, table.Column{Name: string(f), Values: values})
	}

	return table.New(columns...)
}
