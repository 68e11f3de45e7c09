package repository

import (
	"context"
	"strings"

	"github.com/fekuna/medequip-catalog-service/internal/facet"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

// liveProduct holds for products shoppers can buy: not deleted, with stock of
// their own or on an active variant.
const liveProduct = `p.status <> 'deleted' AND (p.stock_quantity > 0 OR EXISTS (
            SELECT 1 FROM product_variants pv
            WHERE pv.master_id = p.id AND pv.status = 'active' AND pv.stock_override > 0))`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error) {
	groups := []model.CharacteristicGroup{}
	query := `SELECT id, name, parent_id, sort_order, is_active, created_at, updated_at
        FROM characteristic_groups WHERE is_active`
	if err := r.DB.SelectContext(ctx, &groups, query); err != nil {
		return nil, postgres.Classify(err, "list facet groups")
	}
	return groups, nil
}

func (r *PGRepository) CountProducts(ctx context.Context, f *dto.FacetFilter) ([]facet.CountRow, error) {
	conditions := []string{liveProduct}
	args := map[string]interface{}{}
	if f.CategoryID != "" {
		conditions = append(conditions, "p.category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.ManufacturerID != "" {
		conditions = append(conditions, "p.manufacturer_id = :manufacturer_id")
		args["manufacturer_id"] = f.ManufacturerID
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(p.name ILIKE :search OR p.sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	// The (group_id) set yields the per-group distinct count with a NULL
	// value_id; MIN over a single value is that value's own column.
	query := `
        SELECT v.group_id,
               v.id AS value_id,
               MIN(v.value) AS value,
               MIN(v.color_hex) AS color_hex,
               MIN(v.sort_order) AS sort_order,
               COUNT(DISTINCT a.product_id) AS product_count
        FROM characteristic_assignments a
        JOIN products p ON p.id = a.product_id
        JOIN characteristic_values v ON v.id = a.value_id AND v.is_active
        JOIN characteristic_groups g ON g.id = v.group_id AND g.is_active
        WHERE ` + strings.Join(conditions, " AND ") + `
        GROUP BY GROUPING SETS ((v.group_id), (v.group_id, v.id))
    `

	named, namedArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}
	rows := []facet.CountRow{}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(named), namedArgs...); err != nil {
		return nil, postgres.Classify(err, "count facet products")
	}
	return rows, nil
}

var _ facet.Repository = (*PGRepository)(nil)
