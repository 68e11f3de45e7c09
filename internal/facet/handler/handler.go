package handler

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/facet"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "catalog.v1.FacetService"

type FacetsResponse struct {
	Sections []model.FacetSection `json:"sections"`
}

type FacetServiceServer interface {
	GetFacets(ctx context.Context, req *dto.FacetFilter) (*FacetsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FacetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetFacets", FacetServiceServer.GetFacets),
	},
}

func Register(s grpc.ServiceRegistrar, h FacetServiceServer) {
	s.RegisterService(&ServiceDesc, h)
}

type FacetHandler struct {
	uc facet.UseCase
}

func NewFacetHandler(uc facet.UseCase) *FacetHandler {
	return &FacetHandler{uc: uc}
}

func (h *FacetHandler) GetFacets(ctx context.Context, req *dto.FacetFilter) (*FacetsResponse, error) {
	sections, err := h.uc.GetFacets(ctx, req)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &FacetsResponse{Sections: sections}, nil
}
