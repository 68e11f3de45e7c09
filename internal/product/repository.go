package product

import (
	"context"
	"database/sql"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
)

// Repository reads and writes products and their variants. Finders return
// (nil, nil) when the row does not exist; deleted rows are returned as stored.
type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateStock(ctx context.Context, id string, stock int64) (bool, error)
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
	// ValueIDs lists the characteristic values assigned to the product itself.
	ValueIDs(ctx context.Context, productID string) ([]string, error)

	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
	// FirstVariant returns the oldest non-deleted variant of the product.
	FirstVariant(ctx context.Context, productID string) (*model.ProductVariant, error)
	// InsertDefaultVariant reports false when another live default variant
	// already exists for the product.
	InsertDefaultVariant(ctx context.Context, variant *model.ProductVariant) (bool, error)
	UpdateVariant(ctx context.Context, variant *model.ProductVariant) error
	SoftDeleteVariant(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateVariantStock(ctx context.Context, id string, stock sql.Null[int64]) (bool, error)
}
