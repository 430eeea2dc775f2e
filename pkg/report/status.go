package report

import (
	"avlmap/pkg/mapping"
	"avlmap/pkg/schema"
)

// FieldStatus describes one canonical field in the mapping status report.
type FieldStatus struct {
	Field  schema.Field `json:"field"`
	Mapped bool         `json:"mapped"`
	Source string       `json:"source,omitempty"`
}

// SourceStatus describes one source column: where it currently maps, what it
// may still be mapped to, and a few sample values.
type SourceStatus struct {
	Column  string         `json:"column"`
	Field   schema.Field   `json:"field,omitempty"`
	Options []schema.Field `json:"options"`
	Samples []string       `json:"samples"`
}

// MappingStatus is the operator-facing view of a mapping session.
type MappingStatus struct {
	Sources   []SourceStatus `json:"sources"`
	Fields    []FieldStatus  `json:"fields"`
	Mapped    int            `json:"mapped"`
	Total     int            `json:"total"`
	Progress  float64        `json:"progress"`
	Valid     bool           `json:"valid"`
	Unmapped  []schema.Field `json:"unmapped"`
	Validated bool           `json:"validated"`
	Complete  bool           `json:"complete"`
	RowCount  int            `json:"rowCount"`
}

// Options controls sample rendering.
type Options struct {
	SampleSize  int
	SampleWidth int
}

// BuildStatus compiles the status of s. It only reads the session.
func BuildStatus(s *mapping.Session, opts Options) *MappingStatus {
	res := s.Validate()
	status := &MappingStatus{
		Sources:   make([]SourceStatus, 0, s.Table().Len()),
		Fields:    make([]FieldStatus, 0, schema.FieldCount),
		Total:     schema.FieldCount,
		Valid:     res.Valid,
		Unmapped:  res.Unmapped,
		Validated: s.Validated(),
		Complete:  s.Complete(),
		RowCount:  s.Table().RowCount(),
	}

	for _, col := range s.Table().Names() {
		f, _ := s.Field(col)
		status.Sources = append(status.Sources, SourceStatus{
			Column:  col,
			Field:   f,
			Options: s.Options(col),
			Samples: s.Samples(col, opts.SampleSize, opts.SampleWidth),
		})
	}

	for _, f := range schema.Fields() {
		source, ok := s.Claimant(f)
		status.Fields = append(status.Fields, FieldStatus{
			Field:  f,
			Mapped: ok,
			Source: source,
		})
		if ok {
			status.Mapped++
		}
	}

	status.Progress = float64(status.Mapped) / float64(status.Total)
	return status
}
