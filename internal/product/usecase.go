package product

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	AddVariant(ctx context.Context, input *dto.CreateVariantInput) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
	UpdateVariant(ctx context.Context, input *dto.UpdateVariantInput) (*model.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID string) error

	// EnsureVariant returns a live variant of the product, creating a default
	// one when none exists. Concurrent calls yield the same variant.
	EnsureVariant(ctx context.Context, productID string) (*model.ProductVariant, error)
	ResolveEffective(ctx context.Context, input *dto.ResolveInput) (*model.EffectiveProduct, error)
	UpdateStock(ctx context.Context, update *dto.StockUpdate) error

	// Reindex refreshes the product's search document in the background.
	Reindex(productID string)
}
