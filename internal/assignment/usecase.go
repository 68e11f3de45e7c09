package assignment

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/assignment/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

type UseCase interface {
	GetAssignments(ctx context.Context, input *dto.OwnerInput) ([]model.Assignment, error)
	// SetAssignments replaces the owner's whole assignment set.
	SetAssignments(ctx context.Context, input *dto.SetAssignmentsInput) ([]model.Assignment, error)
	GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error)
	SetConfigurable(ctx context.Context, input *dto.SetConfigurableInput) (*model.ConfigurableCharacteristics, error)
}
