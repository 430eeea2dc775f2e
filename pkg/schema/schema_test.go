package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_RegistryOrder(t *testing.T) {
	fields := Fields()
	require.Len(t, fields, 12)
	assert.Equal(t, EquipmentCategory, fields[0])
	assert.Equal(t, AdditionalNotes, fields[11])

	// Mutating the copy must not leak into the registry.
	fields[0] = "Something Else"
	assert.Equal(t, EquipmentCategory, Fields()[0])
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "internal_notes", ColumnName(InternalNotes))
	assert.Equal(t, "model_sku", ColumnName(ModelSKU))
	assert.Equal(t, "", ColumnName("Bogus"))
	assert.Len(t, ColumnNames(), FieldCount)
}

func TestSuggest_ExactNormalizedMatch(t *testing.T) {
	f, ok := Suggest("equipment category", nil)
	require.True(t, ok)
	assert.Equal(t, EquipmentCategory, f)

	f, ok = Suggest("MODEL_SKU", nil)
	require.True(t, ok)
	assert.Equal(t, ModelSKU, f)
}

func TestSuggest_Containment(t *testing.T) {
	tests := []struct {
		source string
		want   Field
		ok     bool
	}{
		{"Manufacturer Name", Manufacturer, true},
		{"racking", RackingSystemName, true},
		{"Mfr", "", false},
		{"Cat", EquipmentCategory, true},
		{"desc", ProductModelDescription, true},
		{"notes", InternalNotes, true},
		{"warranty_years", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, ok := Suggest(tt.source, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggest_SkipsClaimedFields(t *testing.T) {
	claimed := func(f Field) bool { return f == InternalNotes }

	f, ok := Suggest("notes", claimed)
	require.True(t, ok)
	assert.Equal(t, AdditionalNotes, f)

	all := func(Field) bool { return true }
	_, ok = Suggest("notes", all)
	assert.False(t, ok)
}

func TestSuggest_Deterministic(t *testing.T) {
	claimed := func(f Field) bool { return f == RackingSystemName }
	first, ok1 := Suggest("racking", claimed)
	second, ok2 := Suggest("racking", claimed)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, RackingStyle, first)
}

func TestInferMappings_FirstHeaderWins(t *testing.T) {
	got := InferMappings([]string{"racking", "RACKING", "Mfr"}, nil)
	assert.Equal(t, map[string]Field{
		"racking": RackingSystemName,
		"RACKING": RackingStyle,
	}, got)
}

func TestInferMappings_SkipsPreClaimed(t *testing.T) {
	claimed := func(f Field) bool { return f == RackingSystemName }
	got := InferMappings([]string{"racking", "Racking Style"}, claimed)
	assert.Equal(t, map[string]Field{"racking": RackingStyle}, got)
}

func TestCanonicalizeHeader(t *testing.T) {
	f, ok := CanonicalizeHeader("  model sku ")
	require.True(t, ok)
	assert.Equal(t, ModelSKU, f)

	f, ok = CanonicalizeHeader("Internal Notes")
	require.True(t, ok)
	assert.Equal(t, InternalNotes, f)

	_, ok = CanonicalizeHeader("model")
	assert.False(t, ok)
}

func TestCleanValue(t *testing.T) {
	assert.Nil(t, CleanValue(nil))
	assert.Equal(t, "a b", *CleanValue("  a b\x00 "))
	assert.Equal(t, "400", *CleanValue(400))
	assert.Equal(t, "3.5", *CleanValue(3.5))
	assert.Equal(t, "true", *CleanValue(true))
	assert.Equal(t, "é", *CleanValue("é"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "reseau solaire 400w", NormalizeText("  Réseau   Solaire\t400W "))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestSampleValues(t *testing.T) {
	long := "Monocrystalline PERC half-cut bifacial module"
	values := []any{nil, "A", long, 400, "B"}

	got := SampleValues(values, 3, 30)
	assert.Equal(t, []string{"A", "Monocrystalline PERC half-c...", "400"}, got)

	// Too few non-null values: fall back to the leading values.
	got = SampleValues([]any{nil, "x", nil}, 3, 30)
	assert.Equal(t, []string{NullSample, "x", NullSample}, got)
	assert.Equal(t, "None", NullSample)

	assert.Empty(t, SampleValues(nil, 0, 0))
}

func TestRecord_GetSet(t *testing.T) {
	var r Record
	v := "Acme"
	r.Set(Manufacturer, &v)
	r.Set("Unknown", &v)

	assert.Equal(t, "Acme", r.String(Manufacturer))
	assert.Nil(t, r.Get(ModelSKU))
	assert.Equal(t, "", r.String(ModelSKU))
}
