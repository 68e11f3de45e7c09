package facet

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// CountRow is one row of the grouped count. ValueID is nil on the per-group
// total, whose value columns are then meaningless.
type CountRow struct {
	GroupID      string  `db:"group_id"`
	ValueID      *string `db:"value_id"`
	Value        string  `db:"value"`
	ColorHex     *string `db:"color_hex"`
	SortOrder    int     `db:"sort_order"`
	ProductCount int     `db:"product_count"`
}

type Repository interface {
	ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error)
	// CountProducts counts distinct live, in-stock products per active group
	// and per active value, through product-level assignments.
	CountProducts(ctx context.Context, filter *dto.FacetFilter) ([]CountRow, error)
}
