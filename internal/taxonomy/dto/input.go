package dto

type CreateGroupInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
	// SortOrder defaults to one past the last sibling.
	SortOrder *int `json:"sort_order" validate:"omitempty,gte=0"`
}

type UpdateGroupInput struct {
	ID        string  `json:"id" validate:"required,uuid"`
	Name      string  `json:"name" validate:"required,max=255"`
	ParentID  *string `json:"parent_id" validate:"omitempty,uuid"` // nil moves the group to the top level
	SortOrder int     `json:"sort_order" validate:"gte=0"`
	IsActive  *bool   `json:"is_active"` // nil keeps the current state
}

type CreateValueInput struct {
	GroupID   string  `json:"group_id" validate:"required,uuid"`
	Value     string  `json:"value" validate:"required,max=255"`
	ColorHex  *string `json:"color_hex" validate:"omitempty,hexcolor,max=7"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,gte=0"`
}
