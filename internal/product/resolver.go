package product

import (
	"maps"

	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// Resolve computes the sellable view of a product, optionally narrowed to one
// of its variants. Set variant overrides replace product values; an explicit
// zero stock override stays zero.
func Resolve(p *model.Product, v *model.ProductVariant) model.EffectiveProduct {
	eff := model.EffectiveProduct{
		ProductID:     p.ID,
		SKU:           p.SKU,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.StockQuantity,
		Attributes:    model.Attributes{},
	}
	maps.Copy(eff.Attributes, p.BaseAttributes)

	if v != nil {
		id := v.ID
		eff.VariantID = &id
		eff.SKU = v.SKU
		if v.PriceOverride.Valid {
			eff.Price = v.PriceOverride.Decimal
		}
		if v.DiscountPriceOverride.Valid {
			eff.DiscountPrice = v.DiscountPriceOverride
		}
		if v.StockOverride.Valid {
			eff.Stock = v.StockOverride.V
		}
		maps.Copy(eff.Attributes, v.Attributes)
	}

	eff.InStock = eff.Stock > 0
	return eff
}
