package engine

import (
	"sort"

	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

// MatchType describes how an incoming row was tied to a stored record.
type MatchType string

const (
	MatchExactSKU         MatchType = "exact_sku"
	MatchFuzzyDescription MatchType = "fuzzy_description"
	MatchFuzzyAmbiguous   MatchType = "fuzzy_ambiguous"
)

// ReconcileResult contains the outcome of reconciling incoming rows against
// the AVL index. It is informational; nothing is merged or dropped.
type ReconcileResult struct {
	Matched []Match        `json:"matched"`
	New     []NewRecord    `json:"new"`
	Stats   ReconcileStats `json:"stats"`
}

// Match is an incoming row that corresponds to a stored record.
type Match struct {
	Row       int             `json:"row"`
	Existing  *store.Record   `json:"existing"`
	MatchType MatchType       `json:"matchType"`
	Score     float64         `json:"score"`
	Conflicts []FieldConflict `json:"conflicts"`
}

// NewRecord is an incoming row with no stored counterpart.
type NewRecord struct {
	Row              int      `json:"row"`
	AttemptedMatches []string `json:"attemptedMatches"`
}

// ReconcileStats contains aggregate statistics about a reconciliation.
type ReconcileStats struct {
	TotalProcessed   int `json:"totalProcessed"`
	ExactSKU         int `json:"exactSku"`
	FuzzyDescription int `json:"fuzzyDescription"`
	Ambiguous        int `json:"ambiguous"`
	New              int `json:"new"`
}

// Fuzzy match thresholds
const (
	fuzzyMatchThreshold = 0.85
	fuzzyAmbiguityGap   = 0.10
)

// Reconcile walks incoming rows in order and tries, for each:
//  1. Exact manufacturer+SKU match (normalized)
//  2. Fuzzy product description match among records of the same manufacturer
//     (normalized Levenshtein, threshold 0.85, gap 0.10)
//  3. No match -> new
func Reconcile(index *AVLIndex, incoming []schema.Record) *ReconcileResult {
	result := &ReconcileResult{
		Matched: make([]Match, 0),
		New:     make([]NewRecord, 0),
	}

	for row, rec := range incoming {
		result.Stats.TotalProcessed++
		var attempted []string

		if key, ok := skuKey(rec); ok {
			attempted = append(attempted, "sku:"+key)
			if existing, ok := index.BySKU[key]; ok {
				result.Matched = append(result.Matched, Match{
					Row:       row,
					Existing:  existing,
					MatchType: MatchExactSKU,
					Score:     1.0,
					Conflicts: DetectConflicts(existing, rec),
				})
				result.Stats.ExactSKU++
				continue
			}
		}

		desc := schema.NormalizeText(rec.String(schema.ProductModelDescription))
		manufacturer := schema.NormalizeText(rec.String(schema.Manufacturer))
		if desc != "" && manufacturer != "" {
			attempted = append(attempted, "description:"+desc)
			if m, ok := fuzzyDescriptionMatch(index.ByManufacturer[manufacturer], desc); ok {
				m.Row = row
				m.Conflicts = DetectConflicts(m.Existing, rec)
				result.Matched = append(result.Matched, m)
				if m.MatchType == MatchFuzzyAmbiguous {
					result.Stats.Ambiguous++
				} else {
					result.Stats.FuzzyDescription++
				}
				continue
			}
		}

		result.New = append(result.New, NewRecord{Row: row, AttemptedMatches: attempted})
		result.Stats.New++
	}

	return result
}

// fuzzyDescriptionMatch scores candidates by description. A single best
// candidate above the threshold, clear of the runner-up by the gap, is a
// match; a closer race is flagged ambiguous against the best candidate.
func fuzzyDescriptionMatch(candidates []*store.Record, desc string) (Match, bool) {
	type scoredCandidate struct {
		record *store.Record
		score  float64
	}

	var scored []scoredCandidate
	for _, c := range candidates {
		have := schema.NormalizeText(c.Fields.String(schema.ProductModelDescription))
		if have == "" {
			continue
		}
		if score := similarity(desc, have); score >= fuzzyMatchThreshold {
			scored = append(scored, scoredCandidate{record: c, score: score})
		}
	}
	if len(scored) == 0 {
		return Match{}, false
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	m := Match{
		Existing:  scored[0].record,
		MatchType: MatchFuzzyDescription,
		Score:     scored[0].score,
	}
	if len(scored) > 1 && scored[0].score-scored[1].score < fuzzyAmbiguityGap {
		m.MatchType = MatchFuzzyAmbiguous
	}
	return m, true
}
