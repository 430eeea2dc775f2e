package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

func avlRow(manufacturer, sku, desc string) schema.Record {
	var r schema.Record
	set := func(f schema.Field, v string) {
		if v != "" {
			r.Set(f, &v)
		}
	}
	set(schema.Manufacturer, manufacturer)
	set(schema.ModelSKU, sku)
	set(schema.ProductModelDescription, desc)
	return r
}

func stored(manufacturer, sku, desc string) *store.Record {
	return &store.Record{ID: uuid.New(), Fields: avlRow(manufacturer, sku, desc), DateAdded: "2024-01-02"}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("", ""))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 1, levenshteinDistance("réseau", "reseau"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("panel", "panel"))
	assert.InDelta(t, 0.95, similarity("acme mono 400w panel", "acme mono 405w panel"), 1e-9)
	assert.Less(t, similarity("string inverter", "mono panel"), fuzzyMatchThreshold)
}

func TestBuildIndex(t *testing.T) {
	first := stored("Acme", "AC-400", "")
	records := []*store.Record{
		first,
		stored("ACME", "ac-400", "duplicate"),
		stored("Bolt", "", "rail kit"),
		stored("", "X-1", ""),
	}

	index := BuildIndex(records)

	assert.Same(t, first, index.BySKU["acme|ac-400"])
	assert.Contains(t, index.BySKU, "|x-1")
	assert.Len(t, index.ByManufacturer["acme"], 2)
	assert.Equal(t, IndexStats{TotalRecords: 4, UniqueSKUs: 2, Manufacturers: 2, MissingSKU: 1}, index.Stats)
}

func TestReconcile_ExactSKU(t *testing.T) {
	existing := stored("Acme Solar", "AC-400", "Mono 400W panel")
	index := BuildIndex([]*store.Record{existing})

	incoming := avlRow(" ACME  solar", "ac-400", "Mono 400 W panel, black frame")
	result := Reconcile(index, []schema.Record{incoming})

	require.Len(t, result.Matched, 1)
	m := result.Matched[0]
	assert.Equal(t, 0, m.Row)
	assert.Same(t, existing, m.Existing)
	assert.Equal(t, MatchExactSKU, m.MatchType)
	require.Len(t, m.Conflicts, 1)
	assert.Equal(t, schema.ProductModelDescription, m.Conflicts[0].Field)
	assert.Equal(t, "Mono 400W panel", m.Conflicts[0].Existing)
	assert.Equal(t, "Mono 400 W panel, black frame", m.Conflicts[0].Incoming)
	assert.Equal(t, ReconcileStats{TotalProcessed: 1, ExactSKU: 1}, result.Stats)
}

func TestReconcile_FuzzyDescription(t *testing.T) {
	existing := stored("Acme", "AC-400", "Acme Mono 400W Panel")
	index := BuildIndex([]*store.Record{existing, stored("Acme", "AC-INV", "String Inverter 7kW")})

	result := Reconcile(index, []schema.Record{avlRow("acme", "AC-405", "Acme Mono 405W Panel")})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, MatchFuzzyDescription, result.Matched[0].MatchType)
	assert.Same(t, existing, result.Matched[0].Existing)
	assert.InDelta(t, 0.95, result.Matched[0].Score, 1e-9)
	assert.Equal(t, 1, result.Stats.FuzzyDescription)
}

func TestReconcile_FuzzyRequiresSameManufacturer(t *testing.T) {
	index := BuildIndex([]*store.Record{stored("Acme", "AC-400", "Acme Mono 400W Panel")})

	result := Reconcile(index, []schema.Record{avlRow("Bolt", "B-405", "Acme Mono 405W Panel")})

	assert.Empty(t, result.Matched)
	require.Len(t, result.New, 1)
	assert.Equal(t, []string{"sku:bolt|b-405", "description:acme mono 405w panel"}, result.New[0].AttemptedMatches)
}

func TestReconcile_Ambiguous(t *testing.T) {
	first := stored("Acme", "AC-400", "mono panel 400w")
	index := BuildIndex([]*store.Record{first, stored("Acme", "AC-410", "mono panel 410w")})

	result := Reconcile(index, []schema.Record{avlRow("Acme", "", "mono panel 405w")})

	require.Len(t, result.Matched, 1)
	assert.Equal(t, MatchFuzzyAmbiguous, result.Matched[0].MatchType)
	assert.Same(t, first, result.Matched[0].Existing)
	assert.Equal(t, 1, result.Stats.Ambiguous)
}

func TestReconcile_NewAndOrder(t *testing.T) {
	index := BuildIndex([]*store.Record{stored("Acme", "AC-400", "")})

	result := Reconcile(index, []schema.Record{
		{},
		avlRow("Acme", "AC-400", ""),
		avlRow("Acme", "AC-999", ""),
	})

	require.Len(t, result.New, 2)
	assert.Equal(t, 0, result.New[0].Row)
	assert.Empty(t, result.New[0].AttemptedMatches)
	assert.Equal(t, 2, result.New[1].Row)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, 1, result.Matched[0].Row)
	assert.Equal(t, ReconcileStats{TotalProcessed: 3, ExactSKU: 1, New: 2}, result.Stats)
}

func TestReconcile_EmptyIndex(t *testing.T) {
	result := Reconcile(BuildIndex(nil), []schema.Record{avlRow("Acme", "AC-400", "panel")})

	assert.Empty(t, result.Matched)
	assert.Len(t, result.New, 1)
}
