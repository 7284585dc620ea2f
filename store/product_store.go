// api/store/product_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"floorsight/api/models"
)

// ProductStore is the Postgres-backed product catalog. Lookups accept either
// identifier scheme (SKU or public id) in one round trip so the aggregator
// can cross-reference impressions with clicks.
type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// LookupByIdentifiers resolves a set of identifiers to catalog entries. The
// returned map is keyed by every identifier that resolved: a product found
// by SKU is also reachable under its public id and vice versa. Identifiers
// with no catalog entry are simply absent.
func (s *ProductStore) LookupByIdentifiers(ctx context.Context, ids []string) (map[string]models.Product, error) {
	resolved := make(map[string]models.Product)
	if len(ids) == 0 {
		return resolved, nil
	}

	query := `
		SELECT sku, public_id, product_name, category
		FROM products
		WHERE sku = ANY($1) OR public_id = ANY($1);
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		var category sql.NullString
		if err := rows.Scan(&product.SKU, &product.PublicID, &product.Name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		product.Category = category.String
		if product.SKU != "" {
			resolved[product.SKU] = product
		}
		if product.PublicID != "" {
			resolved[product.PublicID] = product
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during product query: %w", err)
	}

	return resolved, nil
}
