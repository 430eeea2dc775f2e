package engine

import (
	"strings"

	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

// FieldConflict is a field on which an incoming row disagrees with the
// stored record it matched.
type FieldConflict struct {
	Field    schema.Field `json:"field"`
	Existing string       `json:"existing"`
	Incoming string       `json:"incoming"`
}

// DetectConflicts compares every canonical field of existing and incoming.
// A field conflicts when both sides are non-empty and still differ after
// schema.NormalizeText.
func DetectConflicts(existing *store.Record, incoming schema.Record) []FieldConflict {
	var conflicts []FieldConflict

	for _, f := range schema.Fields() {
		have := strings.TrimSpace(existing.Fields.String(f))
		got := strings.TrimSpace(incoming.String(f))
		if have == "" || got == "" || schema.NormalizeText(have) == schema.NormalizeText(got) {
			continue
		}
		conflicts = append(conflicts, FieldConflict{
			Field:    f,
			Existing: have,
			Incoming: got,
		})
	}

	return conflicts
}
