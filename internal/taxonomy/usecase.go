package taxonomy

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy/dto"
)

type UseCase interface {
	ListTree(ctx context.Context) (*dto.Tree, error)
	GetGroup(ctx context.Context, id string) (*model.CharacteristicGroup, error)
	GetGroupValues(ctx context.Context, groupID string) ([]model.CharacteristicValue, error)
	CreateGroup(ctx context.Context, input *dto.CreateGroupInput) (*model.CharacteristicGroup, error)
	UpdateGroup(ctx context.Context, input *dto.UpdateGroupInput) (*model.CharacteristicGroup, error)
	CreateValue(ctx context.Context, input *dto.CreateValueInput) (*model.CharacteristicValue, error)
	DeleteValue(ctx context.Context, valueID string) error
	GetDeleteImpact(ctx context.Context, groupID string) (*model.DeleteImpact, error)
	// DeleteGroup removes the group subtree and returns the impact that was applied.
	DeleteGroup(ctx context.Context, groupID string) (*model.DeleteImpact, error)
}
