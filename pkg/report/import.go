package report

import (
	"sort"

	"github.com/google/uuid"

	"avlmap/pkg/engine"
	"avlmap/pkg/schema"
)

// MatchNew marks an imported row with no stored counterpart.
const MatchNew engine.MatchType = "new"

// ImportEntry is one imported row in the import report.
type ImportEntry struct {
	Row          int                    `json:"row"`
	Manufacturer string                 `json:"manufacturer"`
	ModelSKU     string                 `json:"modelSku"`
	Description  string                 `json:"description"`
	MatchType    engine.MatchType       `json:"matchType"`
	ExistingID   *uuid.UUID             `json:"existingId,omitempty"`
	Score        float64                `json:"score,omitempty"`
	Conflicts    []engine.FieldConflict `json:"conflicts,omitempty"`
}

// ManufacturerSummary groups the entries of one manufacturer.
type ManufacturerSummary struct {
	Manufacturer string        `json:"manufacturer"`
	Rows         int           `json:"rows"`
	Matched      int           `json:"matched"`
	New          int           `json:"new"`
	Conflicts    int           `json:"conflicts"`
	Entries      []ImportEntry `json:"entries"`
}

// ImportReport is the outcome of one committed import.
type ImportReport struct {
	Manufacturers []ManufacturerSummary `json:"manufacturers"`
	Entries       []ImportEntry         `json:"entries"`
	TotalRows     int                   `json:"totalRows"`
	TotalMatched  int                   `json:"totalMatched"`
	TotalNew      int                   `json:"totalNew"`
	Saved         int                   `json:"saved"`
	Stats         engine.ReconcileStats `json:"stats"`
}

// BuildImportReport compiles the reconciliation of rows into a report with
// one entry per row, in row order, grouped by manufacturer name.
func BuildImportReport(rows []schema.Record, result *engine.ReconcileResult, saved int) *ImportReport {
	report := &ImportReport{
		Manufacturers: make([]ManufacturerSummary, 0),
		Entries:       make([]ImportEntry, len(rows)),
		TotalRows:     len(rows),
		TotalMatched:  len(result.Matched),
		TotalNew:      len(result.New),
		Saved:         saved,
		Stats:         result.Stats,
	}

	for i, r := range rows {
		report.Entries[i] = ImportEntry{
			Row:          i,
			Manufacturer: r.String(schema.Manufacturer),
			ModelSKU:     r.String(schema.ModelSKU),
			Description:  r.String(schema.ProductModelDescription),
			MatchType:    MatchNew,
		}
	}
	for _, m := range result.Matched {
		e := &report.Entries[m.Row]
		id := m.Existing.ID
		e.MatchType = m.MatchType
		e.ExistingID = &id
		e.Score = m.Score
		e.Conflicts = m.Conflicts
	}

	byManufacturer := make(map[string]*ManufacturerSummary)
	for _, e := range report.Entries {
		key := schema.NormalizeText(e.Manufacturer)
		summary, ok := byManufacturer[key]
		if !ok {
			summary = &ManufacturerSummary{Manufacturer: e.Manufacturer}
			byManufacturer[key] = summary
		}
		summary.Rows++
		if e.MatchType == MatchNew {
			summary.New++
		} else {
			summary.Matched++
		}
		summary.Conflicts += len(e.Conflicts)
		summary.Entries = append(summary.Entries, e)
	}

	for _, summary := range byManufacturer {
		report.Manufacturers = append(report.Manufacturers, *summary)
	}
	sort.Slice(report.Manufacturers, func(i, j int) bool {
		return schema.NormalizeText(report.Manufacturers[i].Manufacturer) <
			schema.NormalizeText(report.Manufacturers[j].Manufacturer)
	})

	return report
}
