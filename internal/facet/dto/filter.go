package dto

// FacetFilter narrows the set of live products before counting.
type FacetFilter struct {
	CategoryID     string `json:"category_id" form:"category_id" validate:"omitempty,uuid"`
	ManufacturerID string `json:"manufacturer_id" form:"manufacturer_id" validate:"omitempty,uuid"`
	SearchQuery    string `json:"search" form:"search" validate:"max=255"`
}
