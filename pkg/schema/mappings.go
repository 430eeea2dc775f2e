package schema

import (
	"strings"
)

// headerAliases maps trimmed, lower-cased headers to canonical fields for
// tables that already carry canonical names (exports, re-imports).
var headerAliases = map[string]Field{
	"internal notes": InternalNotes,
}

// Suggest proposes a canonical field for a source column name.
//
// The source name is lower-cased with underscores turned into spaces, and each
// canonical field (lower-cased) is tested in registry order: it matches when
// either name contains the other. The first match for which claimed returns
// false wins; claimed fields are skipped, not reconsidered. ok is false when
// nothing matches ("unmapped"). claimed may be nil.
func Suggest(source string, claimed func(Field) bool) (Field, bool) {
	src := normalizeSource(source)
	if strings.TrimSpace(src) == "" {
		return "", false
	}

	for _, f := range canonicalFields {
		dst := strings.ToLower(string(f))
		if !strings.Contains(src, dst) && !strings.Contains(dst, src) {
			continue
		}
		if claimed != nil && claimed(f) {
			continue
		}
		return f, true
	}
	return "", false
}

// InferMappings runs Suggest over headers in order, treating fields picked
// for earlier headers as claimed along with any field for which claimed
// returns true. Unmatched headers are absent from the result. claimed may be
// nil.
func InferMappings(headers []string, claimed func(Field) bool) map[string]Field {
	result := make(map[string]Field, len(headers))
	used := make(map[Field]bool)

	for _, h := range headers {
		f, ok := Suggest(h, func(f Field) bool {
			return used[f] || (claimed != nil && claimed(f))
		})
		if !ok {
			continue
		}
		result[h] = f
		used[f] = true
	}
	return result
}

// CanonicalizeHeader resolves a header that is meant to already be canonical,
// ignoring case and surrounding whitespace.
func CanonicalizeHeader(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if f, ok := headerAliases[h]; ok {
		return f, true
	}
	for _, f := range canonicalFields {
		if strings.ToLower(string(f)) == h {
			return f, true
		}
	}
	return "", false
}

// normalizeSource lower-cases a source header and replaces underscores with spaces.
func normalizeSource(header string) string {
	return strings.ReplaceAll(strings.ToLower(header), "_", " ")
}
