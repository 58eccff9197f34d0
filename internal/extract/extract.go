// Package extract decomposes the typed order-line log into the five
// de-duplicated relations and registers them in a catalog.
package extract

import (
	"fmt"

	"supplychain/internal/engine"
	"supplychain/internal/schema"
)

// Extract projects src onto every schema entity, removes duplicate rows and
// registers the results in a new catalog. src is not modified, so calling
// Extract twice on the same frame yields identical catalogs.
func Extract(src *engine.Frame) (*engine.Catalog, error) {
	return ExtractEntities(src, schema.Entities)
}

// ExtractEntities is Extract over an explicit entity list.
func ExtractEntities(src *engine.Frame, entities []schema.Entity) (*engine.Catalog, error) {
	if src == nil {
		return nil, fmt.Errorf("extract: nil source")
	}
	cat := engine.NewCatalog()
	for _, e := range entities {
		rel, err := src.Project(e.Relation, e.Columns...)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", e.Relation, err)
		}
		if err := cat.Register(e.Relation, rel.Distinct()); err != nil {
			return nil, fmt.Errorf("extract %s: %w", e.Relation, err)
		}
	}
	return cat, nil
}
