package facet

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
)

type UseCase interface {
	GetFacets(ctx context.Context, filter *dto.FacetFilter) ([]model.FacetSection, error)
}
