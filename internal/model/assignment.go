package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type OwnerType string

const (
	OwnerProduct OwnerType = "product"
	OwnerVariant OwnerType = "variant"
)

func (o OwnerType) Valid() bool {
	return o == OwnerProduct || o == OwnerVariant
}

// Assignment is one EAV fact: a product or variant carries a characteristic value.
type Assignment struct {
	ID              string    `db:"id" json:"id"`
	ProductID       *string   `db:"product_id" json:"product_id,omitempty"`
	VariantID       *string   `db:"variant_id" json:"variant_id,omitempty"`
	ValueID         string    `db:"value_id" json:"value_id"`
	AdditionalValue *string   `db:"additional_value" json:"additional_value"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`

	GroupID   string  `db:"group_id" json:"group_id"`
	GroupName string  `db:"group_name" json:"group_name"`
	Value     string  `db:"value" json:"value"`
	ColorHex  *string `db:"color_hex" json:"color_hex"`
}

// ConfigurableCharacteristics is the per-product JSON array document.
type ConfigurableCharacteristics struct {
	ProductID       string         `db:"product_id" json:"product_id"`
	Characteristics types.JSONText `db:"characteristics" json:"characteristics"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
