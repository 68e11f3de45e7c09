package dto

import (
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Name           string              `json:"name" validate:"required,max=255"`
	SKU            string              `json:"sku" validate:"required,max=100"`
	Price          decimal.Decimal     `json:"price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price"`
	StockQuantity  int64               `json:"stock_quantity" validate:"gte=0"`
	CategoryID     *string             `json:"category_id" validate:"omitempty,uuid"`
	ManufacturerID *string             `json:"manufacturer_id" validate:"omitempty,uuid"`
	BaseAttributes model.Attributes    `json:"base_attributes"`
}

type UpdateProductInput struct {
	ID             string              `json:"id" validate:"required,uuid"`
	Name           string              `json:"name" validate:"required,max=255"`
	SKU            string              `json:"sku" validate:"required,max=100"`
	Price          decimal.Decimal     `json:"price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price"`
	StockQuantity  int64               `json:"stock_quantity" validate:"gte=0"`
	CategoryID     *string             `json:"category_id" validate:"omitempty,uuid"`
	ManufacturerID *string             `json:"manufacturer_id" validate:"omitempty,uuid"`
	BaseAttributes model.Attributes    `json:"base_attributes"`
	Status         model.Lifecycle     `json:"status" validate:"required,oneof=active inactive"`
}

type CreateVariantInput struct {
	ProductID             string              `json:"product_id" validate:"required,uuid"`
	SKU                   string              `json:"sku" validate:"required,max=120"`
	PriceOverride         decimal.NullDecimal `json:"price_override"`
	DiscountPriceOverride decimal.NullDecimal `json:"discount_price_override"`
	StockOverride         *int64              `json:"stock_override" validate:"omitempty,gte=0"`
	Attributes            model.Attributes    `json:"attributes"`
}

type UpdateVariantInput struct {
	ID                    string              `json:"id" validate:"required,uuid"`
	ProductID             string              `json:"product_id" validate:"required,uuid"`
	SKU                   string              `json:"sku" validate:"required,max=120"`
	PriceOverride         decimal.NullDecimal `json:"price_override"`
	DiscountPriceOverride decimal.NullDecimal `json:"discount_price_override"`
	StockOverride         *int64              `json:"stock_override" validate:"omitempty,gte=0"`
	Attributes            model.Attributes    `json:"attributes"`
	Status                model.Lifecycle     `json:"status" validate:"required,oneof=active inactive"`
}

type ResolveInput struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	VariantID *string `json:"variant_id" validate:"omitempty,uuid"`
}

// StockUpdate sets product stock_quantity, or a variant's stock_override when
// VariantID is set. A nil Stock clears a variant override.
type StockUpdate struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	VariantID *string `json:"variant_id" validate:"omitempty,uuid"`
	Stock     *int64  `json:"stock" validate:"omitempty,gte=0"`
}
