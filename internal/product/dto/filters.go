package dto

import "github.com/fekuna/medequip-catalog-service/internal/model"

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type ProductFilters struct {
	CategoryID     string          `json:"category_id" form:"category_id" validate:"omitempty,uuid"`
	ManufacturerID string          `json:"manufacturer_id" form:"manufacturer_id" validate:"omitempty,uuid"`
	Status         model.Lifecycle `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
	SearchQuery    string          `json:"search" form:"search" validate:"max=255"`
	// ValueIDs keeps products carrying every listed characteristic value.
	ValueIDs  []string `json:"value_ids" form:"value_ids" validate:"omitempty,dive,uuid"`
	SortBy    string   `json:"sort_by" form:"sort_by" validate:"omitempty,oneof=name price created_at"`
	SortOrder string   `json:"sort_order" form:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page      int      `json:"page" form:"page" validate:"gte=0"`
	PageSize  int      `json:"page_size" form:"page_size" validate:"gte=0,lte=200"`
}

// Normalize fills paging defaults.
func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

func (f *ProductFilters) Offset() int {
	return (f.Page - 1) * f.PageSize
}
