package taxonomy

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/model"
)

// Repository persists characteristic groups, their values and everything
// attached to them. FindXByID methods return (nil, nil) when the row is absent.
type Repository interface {
	ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error)
	ListActiveValues(ctx context.Context) ([]model.CharacteristicValue, error)

	FindGroupByID(ctx context.Context, id string) (*model.CharacteristicGroup, error)
	// LockGroup is FindGroupByID taking a row lock until the transaction ends.
	LockGroup(ctx context.Context, id string) (*model.CharacteristicGroup, error)
	// FindChildGroups returns the direct children of parentIDs, active or not.
	FindChildGroups(ctx context.Context, parentIDs []string) ([]model.CharacteristicGroup, error)
	NextGroupSortOrder(ctx context.Context, parentID *string) (int, error)
	CreateGroup(ctx context.Context, group *model.CharacteristicGroup) error
	UpdateGroup(ctx context.Context, group *model.CharacteristicGroup) error

	FindValueByID(ctx context.Context, id string) (*model.CharacteristicValue, error)
	ListGroupValues(ctx context.Context, groupID string) ([]model.CharacteristicValue, error)
	NextValueSortOrder(ctx context.Context, groupID string) (int, error)
	CreateValue(ctx context.Context, value *model.CharacteristicValue) error

	CountValues(ctx context.Context, groupIDs []string) (int, error)
	CountAssignments(ctx context.Context, groupIDs []string) (int, error)
	CountAffectedProducts(ctx context.Context, groupIDs []string) (int, error)
	SampleAffectedProducts(ctx context.Context, groupIDs []string, limit int) ([]model.ProductRef, error)
	AffectedProductIDs(ctx context.Context, groupIDs []string) ([]string, error)
	// ValueProductIDs lists products holding the value directly or through a variant.
	ValueProductIDs(ctx context.Context, valueID string) ([]string, error)

	DeleteAssignmentsByGroups(ctx context.Context, groupIDs []string) (int64, error)
	DeleteValuesByGroups(ctx context.Context, groupIDs []string) (int64, error)
	DeleteGroups(ctx context.Context, groupIDs []string) (int64, error)
	DeleteAssignmentsByValue(ctx context.Context, valueID string) (int64, error)
	DeleteValue(ctx context.Context, valueID string) (int64, error)
}

// TransactionScope runs fn against a Repository bound to one transaction.
// The transaction commits when fn returns nil.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repo Repository) error) error
}

// SearchIndexer refreshes a product's search document. product.UseCase satisfies it.
type SearchIndexer interface {
	Reindex(productID string)
}

// EventPublisher delivers audit events keyed by entity id.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, value any) error
}
