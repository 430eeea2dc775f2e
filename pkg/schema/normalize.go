package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Sample display defaults.
const (
	DefaultSampleSize  = 3
	DefaultSampleWidth = 30
)

// CleanValue converts a raw cell into the stored string form.
// nil stays nil. Strings are trimmed, NUL bytes removed, non-breaking spaces
// turned into plain spaces and the result NFC-normalized.
func CleanValue(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(t)
		s = strings.ReplaceAll(s, "\x00", "")
		s = strings.ReplaceAll(s, "\u00a0", " ")
		s = norm.NFC.String(s)
	case *string:
		if t == nil {
			return nil
		}
		return CleanValue(*t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// NormalizeText folds a free-text value for comparison: lower-case, diacritics
// stripped, whitespace collapsed.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = stripDiacritics(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// NullSample is how a missing value is shown among sample values.
const NullSample = "None"

// SampleValues returns up to n display values from a column. Non-null values
// are preferred; when there are fewer than n of them the first n values are
// used as they are. Strings of width runes or more are cut to width-3 runes
// plus "...", and nil shows as NullSample. Non-positive arguments fall back
// to the defaults.
func SampleValues(values []any, n, width int) []string {
	if n <= 0 {
		n = DefaultSampleSize
	}
	if width <= 3 {
		width = DefaultSampleWidth
	}

	picked := make([]any, 0, n)
	for _, v := range values {
		if len(picked) == n {
			break
		}
		if v != nil {
			picked = append(picked, v)
		}
	}
	if len(picked) < n {
		picked = picked[:0]
		for i := 0; i < len(values) && i < n; i++ {
			picked = append(picked, values[i])
		}
	}

	out := make([]string, 0, len(picked))
	for _, v := range picked {
		if s, ok := v.(string); ok {
			if r := []rune(s); len(r) >= width {
				s = string(r[:width-3]) + "..."
			}
			out = append(out, s)
			continue
		}
		if v == nil {
			out = append(out, NullSample)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}
