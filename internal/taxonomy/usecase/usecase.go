package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/auth"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	retryBackoff = 100 * time.Millisecond

	entityGroup = "characteristic_group"
	entityValue = "characteristic_value"
)

type Options struct {
	// MaxDepth is how many levels new or moved groups may occupy; 2 allows
	// sections and their groups.
	MaxDepth int
	// GuardDepth bounds every walk over stored parent links.
	GuardDepth   int
	SampleSize   int
	TreeCacheTTL time.Duration
}

type taxonomyUseCase struct {
	repo    taxonomy.Repository
	tx      taxonomy.TransactionScope
	cache   *cache.RedisClient
	events  taxonomy.EventPublisher
	indexer taxonomy.SearchIndexer
	logger  logger.ZapLogger
	opts    Options
}

// NewTaxonomyUseCase wires the taxonomy use cases. redis, events and indexer may be nil.
func NewTaxonomyUseCase(
	repo taxonomy.Repository,
	tx taxonomy.TransactionScope,
	redis *cache.RedisClient,
	events taxonomy.EventPublisher,
	indexer taxonomy.SearchIndexer,
	log logger.ZapLogger,
	opts Options,
) taxonomy.UseCase {
	return &taxonomyUseCase{
		repo:    repo,
		tx:      tx,
		cache:   redis,
		events:  events,
		indexer: indexer,
		logger:  log,
		opts:    opts,
	}
}

func (uc *taxonomyUseCase) ListTree(ctx context.Context) (*dto.Tree, error) {
	var cached dto.Tree
	if hit, err := uc.cache.GetJSON(ctx, cache.KeyTree, &cached); err != nil {
		uc.logger.Warn("failed to read taxonomy cache", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	var (
		groups []model.CharacteristicGroup
		values []model.CharacteristicValue
	)
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			groups, err = uc.repo.ListActiveGroups(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			values, err = uc.repo.ListActiveValues(gctx)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	roots, err := taxonomy.BuildTree(groups, values, uc.opts.GuardDepth, func(g model.CharacteristicGroup) {
		uc.logger.Warn("characteristic group parent missing or inactive, listing at top level",
			zap.String("group_id", g.ID),
			zap.Stringp("parent_id", g.ParentID),
		)
	})
	if err != nil {
		uc.logger.Error("characteristic taxonomy is inconsistent", zap.Error(err))
		return nil, err
	}

	tree := &dto.Tree{Roots: roots, Flat: taxonomy.Flatten(roots)}
	if err := uc.cache.SetJSON(ctx, cache.KeyTree, tree, uc.opts.TreeCacheTTL); err != nil {
		uc.logger.Warn("failed to cache taxonomy", zap.Error(err))
	}
	return tree, nil
}

func (uc *taxonomyUseCase) GetGroup(ctx context.Context, id string) (*model.CharacteristicGroup, error) {
	var group *model.CharacteristicGroup
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		var err error
		group, err = uc.repo.FindGroupByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.NotFound("characteristic group", id)
	}
	return group, nil
}

func (uc *taxonomyUseCase) GetGroupValues(ctx context.Context, groupID string) ([]model.CharacteristicValue, error) {
	if _, err := uc.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	var values []model.CharacteristicValue
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		var err error
		values, err = uc.repo.ListGroupValues(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []model.CharacteristicValue{}
	}
	return values, nil
}

func (uc *taxonomyUseCase) CreateGroup(ctx context.Context, input *dto.CreateGroupInput) (*model.CharacteristicGroup, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var created *model.CharacteristicGroup
	err := uc.execute(ctx, func(repo taxonomy.Repository) error {
		if input.ParentID != nil {
			parent, err := repo.LockGroup(ctx, *input.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return apperr.NotFound("characteristic group", *input.ParentID)
			}
			level, err := taxonomy.ResolveLevel(ctx, parent, uc.opts.GuardDepth, repo.FindGroupByID)
			if err != nil {
				return err
			}
			if level+1 >= uc.opts.MaxDepth {
				return uc.depthError()
			}
		}

		sortOrder := 0
		if input.SortOrder != nil {
			sortOrder = *input.SortOrder
		} else {
			next, err := repo.NextGroupSortOrder(ctx, input.ParentID)
			if err != nil {
				return err
			}
			sortOrder = next
		}

		now := time.Now()
		group := &model.CharacteristicGroup{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Name:      input.Name,
			ParentID:  input.ParentID,
			SortOrder: sortOrder,
			IsActive:  true,
		}
		if err := repo.CreateGroup(ctx, group); err != nil {
			return err
		}
		created = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, model.AuditGroupCreated, entityGroup, created.ID, nil, created)
	uc.invalidate(ctx)
	return created, nil
}

func (uc *taxonomyUseCase) UpdateGroup(ctx context.Context, input *dto.UpdateGroupInput) (*model.CharacteristicGroup, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var (
		before, after model.CharacteristicGroup
		affected      []string
	)
	err := uc.execute(ctx, func(repo taxonomy.Repository) error {
		group, err := repo.LockGroup(ctx, input.ID)
		if err != nil {
			return err
		}
		if group == nil {
			return apperr.NotFound("characteristic group", input.ID)
		}
		before = *group

		if !sameParent(group.ParentID, input.ParentID) {
			if err := uc.checkMove(ctx, repo, group, input.ParentID); err != nil {
				return err
			}
		}

		group.Name = input.Name
		group.ParentID = input.ParentID
		group.SortOrder = input.SortOrder
		if input.IsActive != nil {
			group.IsActive = *input.IsActive
		}
		group.UpdatedAt = time.Now()
		if err := repo.UpdateGroup(ctx, group); err != nil {
			return err
		}
		after = *group

		affected = nil
		if before.IsActive != after.IsActive {
			if affected, err = repo.AffectedProductIDs(ctx, []string{group.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, model.AuditGroupUpdated, entityGroup, after.ID, before, after)
	uc.invalidate(ctx)
	uc.reindex(affected)
	return &after, nil
}

// checkMove rejects re-parenting that would create a cycle or nest the
// group's subtree deeper than MaxDepth.
func (uc *taxonomyUseCase) checkMove(ctx context.Context, repo taxonomy.Repository, group *model.CharacteristicGroup, parentID *string) error {
	sub, err := taxonomy.ResolveSubtree(ctx, group.ID, uc.opts.GuardDepth, repo.FindChildGroups)
	if err != nil {
		return err
	}

	level := 0
	if parentID != nil {
		if sub.Contains(*parentID) {
			return apperr.Validation("INVALID_PARENT", "a group cannot be moved under itself or its descendants",
				apperr.FieldError{Field: "parent_id", Message: "Must not be the group or one of its descendants"})
		}
		parent, err := repo.FindGroupByID(ctx, *parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return apperr.NotFound("characteristic group", *parentID)
		}
		parentLevel, err := taxonomy.ResolveLevel(ctx, parent, uc.opts.GuardDepth, repo.FindGroupByID)
		if err != nil {
			return err
		}
		level = parentLevel + 1
	}
	if level+sub.Height >= uc.opts.MaxDepth {
		return uc.depthError()
	}
	return nil
}

func (uc *taxonomyUseCase) depthError() error {
	return apperr.Validation("MAX_DEPTH_EXCEEDED",
		fmt.Sprintf("characteristic groups can be nested at most %d levels deep", uc.opts.MaxDepth),
		apperr.FieldError{Field: "parent_id", Message: "Parent is nested too deep"})
}

func (uc *taxonomyUseCase) CreateValue(ctx context.Context, input *dto.CreateValueInput) (*model.CharacteristicValue, error) {
	input.Value = strings.TrimSpace(input.Value)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var created *model.CharacteristicValue
	err := uc.execute(ctx, func(repo taxonomy.Repository) error {
		group, err := repo.FindGroupByID(ctx, input.GroupID)
		if err != nil {
			return err
		}
		if group == nil {
			return apperr.NotFound("characteristic group", input.GroupID)
		}

		sortOrder := 0
		if input.SortOrder != nil {
			sortOrder = *input.SortOrder
		} else {
			next, err := repo.NextValueSortOrder(ctx, input.GroupID)
			if err != nil {
				return err
			}
			sortOrder = next
		}

		now := time.Now()
		value := &model.CharacteristicValue{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			GroupID:   input.GroupID,
			Value:     input.Value,
			ColorHex:  input.ColorHex,
			SortOrder: sortOrder,
			IsActive:  true,
		}
		if err := repo.CreateValue(ctx, value); err != nil {
			return err
		}
		created = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, model.AuditValueCreated, entityValue, created.ID, nil, created)
	uc.invalidate(ctx)
	return created, nil
}

func (uc *taxonomyUseCase) DeleteValue(ctx context.Context, valueID string) error {
	var (
		before      model.CharacteristicValue
		assignments int64
		affected    []string
	)
	err := uc.execute(ctx, func(repo taxonomy.Repository) error {
		value, err := repo.FindValueByID(ctx, valueID)
		if err != nil {
			return err
		}
		if value == nil {
			return apperr.NotFound("characteristic value", valueID)
		}
		before = *value

		if affected, err = repo.ValueProductIDs(ctx, valueID); err != nil {
			return err
		}

		if assignments, err = repo.DeleteAssignmentsByValue(ctx, valueID); err != nil {
			return err
		}
		_, err = repo.DeleteValue(ctx, valueID)
		return err
	})
	if err != nil {
		return err
	}

	uc.logger.Info("characteristic value deleted",
		zap.String("value_id", valueID),
		zap.Int64("assignments_deleted", assignments),
	)
	uc.audit(ctx, model.AuditValueDeleted, entityValue, valueID, before, nil)
	uc.invalidate(ctx)
	uc.reindex(affected)
	return nil
}

// execute runs fn in a transaction, re-running it once after a deadlock or
// serialization failure.
func (uc *taxonomyUseCase) execute(ctx context.Context, fn func(repo taxonomy.Repository) error) error {
	return postgres.RetryTransient(ctx, retryBackoff, func() error {
		return uc.tx.Execute(ctx, fn)
	})
}

// reindex refreshes search documents whose characteristic values changed.
func (uc *taxonomyUseCase) reindex(productIDs []string) {
	if uc.indexer == nil || len(productIDs) == 0 {
		return
	}
	uc.logger.Info("reindexing products after taxonomy change", zap.Int("products", len(productIDs)))
	for _, id := range productIDs {
		uc.indexer.Reindex(id)
	}
}

// audit logs the change and publishes it. Publishing failures are logged only;
// the change is already committed.
func (uc *taxonomyUseCase) audit(ctx context.Context, eventType, entity, id string, before, after any) {
	event := model.AuditEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Entity:    entity,
		EntityID:  id,
		Actor:     auth.Actor(ctx),
		Before:    before,
		After:     after,
		Timestamp: time.Now().UTC(),
	}
	uc.logger.Info("taxonomy changed",
		zap.String("event_type", eventType),
		zap.String("entity_id", id),
		zap.String("actor", event.Actor),
		zap.String("request_id", auth.GetRequestID(ctx)),
		zap.Any("before", before),
		zap.Any("after", after),
	)
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishJSON(ctx, id, event); err != nil {
		uc.logger.Warn("failed to publish audit event",
			zap.String("event_type", eventType),
			zap.String("entity_id", id),
			zap.Error(err),
		)
	}
}

// invalidate drops every cache derived from the taxonomy.
func (uc *taxonomyUseCase) invalidate(ctx context.Context) {
	if err := uc.cache.Invalidate(ctx, cache.KeyTree, cache.PrefixFacets, cache.PrefixProductList); err != nil {
		uc.logger.Warn("failed to invalidate taxonomy caches", zap.Error(err))
	}
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
