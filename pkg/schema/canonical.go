package schema

// Field is one of the canonical AVL column names.
type Field string

// Canonical AVL fields. Declaration order is the output column order.
const (
	EquipmentCategory           Field = "Equipment Category"
	Manufacturer                Field = "Manufacturer"
	TechnologyType              Field = "Technology Type"
	ModelSKU                    Field = "Model SKU"
	ProductModelDescription     Field = "Product Model Description"
	RackingSystemName           Field = "Racking System Name"
	PowerRatingSpecification    Field = "Power Rating Specification"
	ModuleLevelPowerElectronics Field = "Module Level Power Electronics"
	SystemConfiguration         Field = "System Configuration"
	RackingStyle                Field = "Racking Style"
	InternalNotes               Field = "Internal Notes / Memo"
	AdditionalNotes             Field = "Additional Notes"
)

var canonicalFields = [...]Field{
	EquipmentCategory,
	Manufacturer,
	TechnologyType,
	ModelSKU,
	ProductModelDescription,
	RackingSystemName,
	PowerRatingSpecification,
	ModuleLevelPowerElectronics,
	SystemConfiguration,
	RackingStyle,
	InternalNotes,
	AdditionalNotes,
}

// columnNames are the storage column names, indexed like canonicalFields.
var columnNames = [...]string{
	"equipment_category",
	"manufacturer",
	"technology_type",
	"model_sku",
	"product_model_description",
	"racking_system_name",
	"power_rating_specification",
	"module_level_power_electronics",
	"system_configuration",
	"racking_style",
	"internal_notes",
	"additional_notes",
}

// FieldCount is the number of canonical fields.
const FieldCount = len(canonicalFields)

// Fields returns the canonical fields in registry order. The returned slice
// is a copy; mutating it does not affect the registry.
func Fields() []Field {
	out := make([]Field, FieldCount)
	copy(out, canonicalFields[:])
	return out
}

// Index returns the registry position of f, or -1 if f is not canonical.
func Index(f Field) int {
	for i, c := range canonicalFields {
		if c == f {
			return i
		}
	}
	return -1
}

// IsCanonical reports whether f is one of the registry fields.
func IsCanonical(f Field) bool {
	return Index(f) >= 0
}

// ColumnName returns the snake_case storage column for f.
func ColumnName(f Field) string {
	if i := Index(f); i >= 0 {
		return columnNames[i]
	}
	return ""
}

// ColumnNames returns the storage columns in registry order.
func ColumnNames() []string {
	out := make([]string, FieldCount)
	copy(out, columnNames[:])
	return out
}

// Record is one canonical AVL row. Values are indexed in registry order; a
// nil entry is an explicit empty marker.
type Record [FieldCount]*string

// Get returns the value stored for f.
func (r *Record) Get(f Field) *string {
	i := Index(f)
	if i < 0 {
		return nil
	}
	return r[i]
}

// Set stores v for f. Unknown fields are ignored.
func (r *Record) Set(f Field, v *string) {
	if i := Index(f); i >= 0 {
		r[i] = v
	}
}

// String returns the value for f or "" when it is empty.
func (r *Record) String(f Field) string {
	if v := r.Get(f); v != nil {
		return *v
	}
	return ""
}
