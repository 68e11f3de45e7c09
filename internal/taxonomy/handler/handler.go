package handler

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "catalog.v1.TaxonomyService"

type GroupRequest struct {
	ID string `json:"id"`
}

type ValueRequest struct {
	ID string `json:"id"`
}

type TreeResponse struct {
	Tree *dto.Tree `json:"tree"`
}

type GroupResponse struct {
	Group *model.CharacteristicGroup `json:"group"`
}

type ValueResponse struct {
	Value *model.CharacteristicValue `json:"value"`
}

type ValuesResponse struct {
	Values []model.CharacteristicValue `json:"values"`
}

type ImpactResponse struct {
	Impact *model.DeleteImpact `json:"impact"`
}

type TaxonomyServiceServer interface {
	ListTree(ctx context.Context, req *rpc.Empty) (*TreeResponse, error)
	GetGroup(ctx context.Context, req *GroupRequest) (*GroupResponse, error)
	GetGroupValues(ctx context.Context, req *GroupRequest) (*ValuesResponse, error)
	CreateGroup(ctx context.Context, req *dto.CreateGroupInput) (*GroupResponse, error)
	UpdateGroup(ctx context.Context, req *dto.UpdateGroupInput) (*GroupResponse, error)
	CreateValue(ctx context.Context, req *dto.CreateValueInput) (*ValueResponse, error)
	DeleteValue(ctx context.Context, req *ValueRequest) (*rpc.Empty, error)
	GetDeleteImpact(ctx context.Context, req *GroupRequest) (*ImpactResponse, error)
	DeleteGroup(ctx context.Context, req *GroupRequest) (*ImpactResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaxonomyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListTree", TaxonomyServiceServer.ListTree),
		rpc.Unary(ServiceName, "GetGroup", TaxonomyServiceServer.GetGroup),
		rpc.Unary(ServiceName, "GetGroupValues", TaxonomyServiceServer.GetGroupValues),
		rpc.Unary(ServiceName, "CreateGroup", TaxonomyServiceServer.CreateGroup),
		rpc.Unary(ServiceName, "UpdateGroup", TaxonomyServiceServer.UpdateGroup),
		rpc.Unary(ServiceName, "CreateValue", TaxonomyServiceServer.CreateValue),
		rpc.Unary(ServiceName, "DeleteValue", TaxonomyServiceServer.DeleteValue),
		rpc.Unary(ServiceName, "GetDeleteImpact", TaxonomyServiceServer.GetDeleteImpact),
		rpc.Unary(ServiceName, "DeleteGroup", TaxonomyServiceServer.DeleteGroup),
	},
}

func RegisterTaxonomyServiceServer(s grpc.ServiceRegistrar, srv TaxonomyServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var _ TaxonomyServiceServer = (*TaxonomyHandler)(nil)

type TaxonomyHandler struct {
	uc     taxonomy.UseCase
	logger logger.ZapLogger
}

func NewTaxonomyHandler(uc taxonomy.UseCase, log logger.ZapLogger) *TaxonomyHandler {
	return &TaxonomyHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TaxonomyHandler) ListTree(ctx context.Context, _ *rpc.Empty) (*TreeResponse, error) {
	tree, err := h.uc.ListTree(ctx)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &TreeResponse{Tree: tree}, nil
}

func (h *TaxonomyHandler) GetGroup(ctx context.Context, req *GroupRequest) (*GroupResponse, error) {
	group, err := h.uc.GetGroup(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &GroupResponse{Group: group}, nil
}

func (h *TaxonomyHandler) GetGroupValues(ctx context.Context, req *GroupRequest) (*ValuesResponse, error) {
	values, err := h.uc.GetGroupValues(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ValuesResponse{Values: values}, nil
}

func (h *TaxonomyHandler) CreateGroup(ctx context.Context, req *dto.CreateGroupInput) (*GroupResponse, error) {
	group, err := h.uc.CreateGroup(ctx, req)
	if err != nil {
		h.logger.Error("failed to create characteristic group", zap.String("name", req.Name), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &GroupResponse{Group: group}, nil
}

func (h *TaxonomyHandler) UpdateGroup(ctx context.Context, req *dto.UpdateGroupInput) (*GroupResponse, error) {
	group, err := h.uc.UpdateGroup(ctx, req)
	if err != nil {
		h.logger.Error("failed to update characteristic group", zap.String("group_id", req.ID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &GroupResponse{Group: group}, nil
}

func (h *TaxonomyHandler) CreateValue(ctx context.Context, req *dto.CreateValueInput) (*ValueResponse, error) {
	value, err := h.uc.CreateValue(ctx, req)
	if err != nil {
		h.logger.Error("failed to create characteristic value", zap.String("group_id", req.GroupID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &ValueResponse{Value: value}, nil
}

func (h *TaxonomyHandler) DeleteValue(ctx context.Context, req *ValueRequest) (*rpc.Empty, error) {
	if err := h.uc.DeleteValue(ctx, req.ID); err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (h *TaxonomyHandler) GetDeleteImpact(ctx context.Context, req *GroupRequest) (*ImpactResponse, error) {
	impact, err := h.uc.GetDeleteImpact(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ImpactResponse{Impact: impact}, nil
}

func (h *TaxonomyHandler) DeleteGroup(ctx context.Context, req *GroupRequest) (*ImpactResponse, error) {
	impact, err := h.uc.DeleteGroup(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ImpactResponse{Impact: impact}, nil
}
