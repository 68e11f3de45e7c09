package model

// CharacteristicGroup is one node of the characteristic taxonomy. Sections are
// groups without a parent; there is no separate section table.
type CharacteristicGroup struct {
	BaseModel
	Name      string  `db:"name" json:"name"`
	ParentID  *string `db:"parent_id" json:"parent_id"`
	SortOrder int     `db:"sort_order" json:"sort_order"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

func (g *CharacteristicGroup) IsSection() bool {
	return g.ParentID == nil
}

type CharacteristicValue struct {
	BaseModel
	GroupID   string  `db:"group_id" json:"group_id"`
	Value     string  `db:"value" json:"value"`
	ColorHex  *string `db:"color_hex" json:"color_hex"`
	SortOrder int     `db:"sort_order" json:"sort_order"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

const TreePathSeparator = " / "

type TreeNode struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	ParentID    *string               `json:"parent_id"`
	SortOrder   int                   `json:"sort_order"`
	Level       int                   `json:"level"`
	FullPath    string                `json:"full_path"`
	DisplayName string                `json:"display_name"`
	Values      []CharacteristicValue `json:"values"`
	Children    []*TreeNode           `json:"children"`
}

type ProductRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	SKU  string `db:"sku" json:"sku"`
}

// DeleteImpact describes everything removing a group would destroy.
type DeleteImpact struct {
	Group                  CharacteristicGroup   `json:"group"`
	ChildGroups            []CharacteristicGroup `json:"child_groups"`
	ValuesInGroup          int                   `json:"values_in_group"`
	ValuesInChildGroups    int                   `json:"values_in_child_groups"`
	AssignmentsAffected    int                   `json:"assignments_affected"`
	AffectedProducts       int                   `json:"affected_products"`
	AffectedProductsSample []ProductRef          `json:"affected_products_sample"`
	Warnings               []string              `json:"warnings"`
	// GroupIDs is the root id followed by every descendant id.
	GroupIDs []string `json:"-"`
}
