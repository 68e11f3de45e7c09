package dto

import "github.com/fekuna/medequip-catalog-service/internal/model"

// Tree is the active taxonomy as nested roots plus the same nodes flattened
// in display order for select widgets.
type Tree struct {
	Roots []*model.TreeNode `json:"roots"`
	Flat  []model.TreeNode  `json:"flat"`
}
