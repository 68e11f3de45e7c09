package assignment

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/model"
)

type Repository interface {
	// FindOwner returns the product id behind a live product or variant, or
	// "" when the owner does not exist or is deleted.
	FindOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error)
	// LockOwner is FindOwner holding a row lock until the transaction ends.
	LockOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error)
	FindByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) ([]model.Assignment, error)
	// FindActiveValueIDs returns the subset of ids that are active values in active groups.
	FindActiveValueIDs(ctx context.Context, ids []string) ([]string, error)
	DeleteByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (int64, error)
	Insert(ctx context.Context, assignments []model.Assignment) error

	GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error)
	UpsertConfigurable(ctx context.Context, doc *model.ConfigurableCharacteristics) error
}

type TransactionScope interface {
	Execute(ctx context.Context, fn func(repo Repository) error) error
}

// SearchIndexer refreshes a product's search document. product.UseCase satisfies it.
type SearchIndexer interface {
	Reindex(productID string)
}
