package handler

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/assignment"
	"github.com/fekuna/medequip-catalog-service/internal/assignment/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "catalog.v1.AssignmentService"

type AssignmentsResponse struct {
	Assignments []model.Assignment `json:"assignments"`
}

type ConfigurableResponse struct {
	Configurable *model.ConfigurableCharacteristics `json:"configurable"`
}

type AssignmentServiceServer interface {
	GetAssignments(ctx context.Context, req *dto.OwnerInput) (*AssignmentsResponse, error)
	SetAssignments(ctx context.Context, req *dto.SetAssignmentsInput) (*AssignmentsResponse, error)
	GetConfigurable(ctx context.Context, req *dto.ProductInput) (*ConfigurableResponse, error)
	SetConfigurable(ctx context.Context, req *dto.SetConfigurableInput) (*ConfigurableResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssignmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetAssignments", AssignmentServiceServer.GetAssignments),
		rpc.Unary(ServiceName, "SetAssignments", AssignmentServiceServer.SetAssignments),
		rpc.Unary(ServiceName, "GetConfigurable", AssignmentServiceServer.GetConfigurable),
		rpc.Unary(ServiceName, "SetConfigurable", AssignmentServiceServer.SetConfigurable),
	},
}

func Register(s grpc.ServiceRegistrar, h AssignmentServiceServer) {
	s.RegisterService(&ServiceDesc, h)
}

var _ AssignmentServiceServer = (*AssignmentHandler)(nil)

type AssignmentHandler struct {
	uc     assignment.UseCase
	logger logger.ZapLogger
}

func NewAssignmentHandler(uc assignment.UseCase, log logger.ZapLogger) *AssignmentHandler {
	return &AssignmentHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AssignmentHandler) GetAssignments(ctx context.Context, req *dto.OwnerInput) (*AssignmentsResponse, error) {
	assignments, err := h.uc.GetAssignments(ctx, req)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &AssignmentsResponse{Assignments: assignments}, nil
}

func (h *AssignmentHandler) SetAssignments(ctx context.Context, req *dto.SetAssignmentsInput) (*AssignmentsResponse, error) {
	assignments, err := h.uc.SetAssignments(ctx, req)
	if err != nil {
		h.logger.Error("failed to set assignments",
			zap.String("owner_type", string(req.OwnerType)),
			zap.String("owner_id", req.OwnerID),
			zap.Error(err),
		)
		return nil, apperr.GRPCStatus(err)
	}
	return &AssignmentsResponse{Assignments: assignments}, nil
}

func (h *AssignmentHandler) GetConfigurable(ctx context.Context, req *dto.ProductInput) (*ConfigurableResponse, error) {
	doc, err := h.uc.GetConfigurable(ctx, req.ProductID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ConfigurableResponse{Configurable: doc}, nil
}

func (h *AssignmentHandler) SetConfigurable(ctx context.Context, req *dto.SetConfigurableInput) (*ConfigurableResponse, error) {
	doc, err := h.uc.SetConfigurable(ctx, req)
	if err != nil {
		h.logger.Error("failed to set configurable characteristics", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &ConfigurableResponse{Configurable: doc}, nil
}
