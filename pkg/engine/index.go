package engine

import (
	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

// AVLIndex provides lookup of stored AVL records by manufacturer and SKU.
type AVLIndex struct {
	BySKU          map[string]*store.Record   `json:"-"`
	ByManufacturer map[string][]*store.Record `json:"-"`
	Stats          IndexStats                 `json:"stats"`
}

// IndexStats contains aggregate statistics about the AVL index.
type IndexStats struct {
	TotalRecords  int `json:"totalRecords"`
	UniqueSKUs    int `json:"uniqueSkus"`
	Manufacturers int `json:"manufacturers"`
	MissingSKU    int `json:"missingSku"`
}

// BuildIndex indexes existing records by normalized manufacturer+SKU (first
// occurrence wins) and groups them by normalized manufacturer.
func BuildIndex(records []*store.Record) *AVLIndex {
	index := &AVLIndex{
		BySKU:          make(map[string]*store.Record, len(records)),
		ByManufacturer: make(map[string][]*store.Record),
	}

	for _, rec := range records {
		manufacturer := schema.NormalizeText(rec.Fields.String(schema.Manufacturer))
		if manufacturer != "" {
			index.ByManufacturer[manufacturer] = append(index.ByManufacturer[manufacturer], rec)
		}

		key, ok := skuKey(rec.Fields)
		if !ok {
			index.Stats.MissingSKU++
			continue
		}
		if _, exists := index.BySKU[key]; !exists {
			index.BySKU[key] = rec
		}
	}

	index.Stats.TotalRecords = len(records)
	index.Stats.UniqueSKUs = len(index.BySKU)
	index.Stats.Manufacturers = len(index.ByManufacturer)
	return index
}

// skuKey is the exact-match key of r. ok is false when r has no SKU.
func skuKey(r schema.Record) (string, bool) {
	sku := schema.NormalizeText(r.String(schema.ModelSKU))
	if sku == "" {
		return "", false
	}
	return schema.NormalizeText(r.String(schema.Manufacturer)) + "|" + sku, true
}
