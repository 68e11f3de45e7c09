package dto

import (
	"encoding/json"

	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// OwnerInput names a product or variant. ProductID is required for a variant
// and must be the variant's master.
type OwnerInput struct {
	OwnerType model.OwnerType `json:"owner_type" validate:"required,oneof=product variant"`
	OwnerID   string          `json:"owner_id" validate:"required,uuid"`
	ProductID string          `json:"product_id" validate:"omitempty,uuid"`
}

type AssignedValue struct {
	ValueID         string  `json:"value_id" validate:"required,uuid"`
	AdditionalValue *string `json:"additional_value" validate:"omitempty,max=1000"`
}

// SetAssignmentsInput carries the complete desired set; values not listed are removed.
type SetAssignmentsInput struct {
	OwnerType model.OwnerType `json:"owner_type" validate:"required,oneof=product variant"`
	OwnerID   string          `json:"owner_id" validate:"required,uuid"`
	ProductID string          `json:"product_id" validate:"omitempty,uuid"`
	Values    []AssignedValue `json:"values" validate:"dive"`
}

type ProductInput struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type SetConfigurableInput struct {
	ProductID       string          `json:"product_id" validate:"required,uuid"`
	Characteristics json.RawMessage `json:"characteristics"`
}
