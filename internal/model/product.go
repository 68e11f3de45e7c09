package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Lifecycle replaces the is_active/is_deleted flag pair so the two can never disagree.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
	LifecycleDeleted  Lifecycle = "deleted"
)

func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleActive, LifecycleInactive, LifecycleDeleted:
		return true
	}
	return false
}

func (l Lifecycle) IsDeleted() bool { return l == LifecycleDeleted }

// Attributes is a free-form key/value map stored as JSONB.
type Attributes map[string]string

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(a))
}

func (a *Attributes) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported type %T", src)
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	*a = m
	return nil
}

type Product struct {
	BaseModel
	Name           string              `db:"name" json:"name"`
	SKU            string              `db:"sku" json:"sku"`
	Price          decimal.Decimal     `db:"price" json:"price"`
	DiscountPrice  decimal.NullDecimal `db:"discount_price" json:"discount_price"`
	StockQuantity  int64               `db:"stock_quantity" json:"stock_quantity"`
	CategoryID     *string             `db:"category_id" json:"category_id"`
	ManufacturerID *string             `db:"manufacturer_id" json:"manufacturer_id"`
	BaseAttributes Attributes          `db:"base_attributes" json:"base_attributes"`
	Status         Lifecycle           `db:"status" json:"status"`
	// HasVariants is computed on read: at least one active variant exists.
	HasVariants bool `db:"has_variants" json:"has_variants"`
}

type ProductVariant struct {
	BaseModel
	MasterID              string              `db:"master_id" json:"master_id"`
	SKU                   string              `db:"sku" json:"sku"`
	PriceOverride         decimal.NullDecimal `db:"price_override" json:"price_override"`
	DiscountPriceOverride decimal.NullDecimal `db:"discount_price_override" json:"discount_price_override"`
	StockOverride         sql.Null[int64]     `db:"stock_override" json:"-"`
	Attributes            Attributes          `db:"attributes" json:"attributes"`
	IsDefault             bool                `db:"is_default" json:"is_default"`
	Status                Lifecycle           `db:"status" json:"status"`
}

// MarshalJSON writes stock_override as a number or null.
func (v ProductVariant) MarshalJSON() ([]byte, error) {
	type alias ProductVariant
	var stock *int64
	if v.StockOverride.Valid {
		stock = &v.StockOverride.V
	}
	return json.Marshal(struct {
		alias
		StockOverride *int64 `json:"stock_override"`
	}{alias(v), stock})
}

func (v *ProductVariant) UnmarshalJSON(data []byte) error {
	type alias ProductVariant
	aux := struct {
		*alias
		StockOverride *int64 `json:"stock_override"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.StockOverride = sql.Null[int64]{}
	if aux.StockOverride != nil {
		v.StockOverride = sql.Null[int64]{V: *aux.StockOverride, Valid: true}
	}
	return nil
}

// IsLive reports whether the variant counts towards has_variants and stock.
func (v *ProductVariant) IsLive() bool {
	return v.Status == LifecycleActive
}

// EffectiveProduct is what cart, checkout and product pages consume.
type EffectiveProduct struct {
	ProductID     string              `json:"product_id"`
	VariantID     *string             `json:"variant_id,omitempty"`
	SKU           string              `json:"sku"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Stock         int64               `json:"stock"`
	InStock       bool                `json:"in_stock"`
	Attributes    Attributes          `json:"attributes"`
}
