package handler

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	ProductServiceName = "catalog.v1.ProductService"
	VariantServiceName = "catalog.v1.ProductVariantService"
)

type ProductRequest struct {
	ID string `json:"id"`
}

type ProductResponse struct {
	Product *model.Product `json:"product"`
}

type ListProductsResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type VariantRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

type VariantResponse struct {
	Variant *model.ProductVariant `json:"variant"`
}

type VariantsResponse struct {
	Variants []model.ProductVariant `json:"variants"`
}

type EffectiveResponse struct {
	Effective *model.EffectiveProduct `json:"effective"`
}

type ProductServiceServer interface {
	CreateProduct(ctx context.Context, req *dto.CreateProductInput) (*ProductResponse, error)
	GetProduct(ctx context.Context, req *ProductRequest) (*ProductResponse, error)
	ListProducts(ctx context.Context, req *dto.ProductFilters) (*ListProductsResponse, error)
	UpdateProduct(ctx context.Context, req *dto.UpdateProductInput) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, req *ProductRequest) (*rpc.Empty, error)
	ResolveEffective(ctx context.Context, req *dto.ResolveInput) (*EffectiveResponse, error)
	UpdateStock(ctx context.Context, req *dto.StockUpdate) (*rpc.Empty, error)
}

type ProductVariantServiceServer interface {
	AddVariant(ctx context.Context, req *dto.CreateVariantInput) (*VariantResponse, error)
	ListVariants(ctx context.Context, req *ProductRequest) (*VariantsResponse, error)
	UpdateVariant(ctx context.Context, req *dto.UpdateVariantInput) (*VariantResponse, error)
	DeleteVariant(ctx context.Context, req *VariantRequest) (*rpc.Empty, error)
	EnsureVariant(ctx context.Context, req *ProductRequest) (*VariantResponse, error)
}

var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ProductServiceName, "CreateProduct", ProductServiceServer.CreateProduct),
		rpc.Unary(ProductServiceName, "GetProduct", ProductServiceServer.GetProduct),
		rpc.Unary(ProductServiceName, "ListProducts", ProductServiceServer.ListProducts),
		rpc.Unary(ProductServiceName, "UpdateProduct", ProductServiceServer.UpdateProduct),
		rpc.Unary(ProductServiceName, "DeleteProduct", ProductServiceServer.DeleteProduct),
		rpc.Unary(ProductServiceName, "ResolveEffective", ProductServiceServer.ResolveEffective),
		rpc.Unary(ProductServiceName, "UpdateStock", ProductServiceServer.UpdateStock),
	},
}

var VariantServiceDesc = grpc.ServiceDesc{
	ServiceName: VariantServiceName,
	HandlerType: (*ProductVariantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(VariantServiceName, "AddVariant", ProductVariantServiceServer.AddVariant),
		rpc.Unary(VariantServiceName, "ListVariants", ProductVariantServiceServer.ListVariants),
		rpc.Unary(VariantServiceName, "UpdateVariant", ProductVariantServiceServer.UpdateVariant),
		rpc.Unary(VariantServiceName, "DeleteVariant", ProductVariantServiceServer.DeleteVariant),
		rpc.Unary(VariantServiceName, "EnsureVariant", ProductVariantServiceServer.EnsureVariant),
	},
}

// Register adds both product services, backed by one handler.
func Register(s grpc.ServiceRegistrar, h *ProductHandler) {
	s.RegisterService(&ProductServiceDesc, h)
	s.RegisterService(&VariantServiceDesc, h)
}

var (
	_ ProductServiceServer        = (*ProductHandler)(nil)
	_ ProductVariantServiceServer = (*ProductHandler)(nil)
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// --- ProductService ---

func (h *ProductHandler) CreateProduct(ctx context.Context, req *dto.CreateProductInput) (*ProductResponse, error) {
	p, err := h.uc.CreateProduct(ctx, req)
	if err != nil {
		h.logger.Error("failed to create product", zap.String("sku", req.SKU), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *ProductRequest) (*ProductResponse, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *dto.ProductFilters) (*ListProductsResponse, error) {
	products, total, err := h.uc.ListProducts(ctx, req)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &ListProductsResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *dto.UpdateProductInput) (*ProductResponse, error) {
	p, err := h.uc.UpdateProduct(ctx, req)
	if err != nil {
		h.logger.Error("failed to update product", zap.String("product_id", req.ID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *ProductRequest) (*rpc.Empty, error) {
	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (h *ProductHandler) ResolveEffective(ctx context.Context, req *dto.ResolveInput) (*EffectiveResponse, error) {
	eff, err := h.uc.ResolveEffective(ctx, req)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &EffectiveResponse{Effective: eff}, nil
}

func (h *ProductHandler) UpdateStock(ctx context.Context, req *dto.StockUpdate) (*rpc.Empty, error) {
	if err := h.uc.UpdateStock(ctx, req); err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &rpc.Empty{}, nil
}

// --- ProductVariantService ---

func (h *ProductHandler) AddVariant(ctx context.Context, req *dto.CreateVariantInput) (*VariantResponse, error) {
	v, err := h.uc.AddVariant(ctx, req)
	if err != nil {
		h.logger.Error("failed to add variant", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &VariantResponse{Variant: v}, nil
}

func (h *ProductHandler) ListVariants(ctx context.Context, req *ProductRequest) (*VariantsResponse, error) {
	variants, err := h.uc.ListVariants(ctx, req.ID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &VariantsResponse{Variants: variants}, nil
}

func (h *ProductHandler) UpdateVariant(ctx context.Context, req *dto.UpdateVariantInput) (*VariantResponse, error) {
	v, err := h.uc.UpdateVariant(ctx, req)
	if err != nil {
		h.logger.Error("failed to update variant", zap.String("variant_id", req.ID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &VariantResponse{Variant: v}, nil
}

func (h *ProductHandler) DeleteVariant(ctx context.Context, req *VariantRequest) (*rpc.Empty, error) {
	if err := h.uc.DeleteVariant(ctx, req.ProductID, req.VariantID); err != nil {
		return nil, apperr.GRPCStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (h *ProductHandler) EnsureVariant(ctx context.Context, req *ProductRequest) (*VariantResponse, error) {
	v, err := h.uc.EnsureVariant(ctx, req.ID)
	if err != nil {
		h.logger.Error("failed to ensure variant", zap.String("product_id", req.ID), zap.Error(err))
		return nil, apperr.GRPCStatus(err)
	}
	return &VariantResponse{Variant: v}, nil
}
