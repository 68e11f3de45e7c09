package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/assignment"
	"github.com/fekuna/medequip-catalog-service/internal/assignment/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

const retryBackoff = 100 * time.Millisecond

type assignmentUseCase struct {
	repo    assignment.Repository
	tx      assignment.TransactionScope
	cache   *cache.RedisClient
	indexer assignment.SearchIndexer
	logger  logger.ZapLogger
}

// NewAssignmentUseCase wires the assignment use cases. redis and indexer may be nil.
func NewAssignmentUseCase(
	repo assignment.Repository,
	tx assignment.TransactionScope,
	redis *cache.RedisClient,
	indexer assignment.SearchIndexer,
	log logger.ZapLogger,
) assignment.UseCase {
	return &assignmentUseCase{
		repo:    repo,
		tx:      tx,
		cache:   redis,
		indexer: indexer,
		logger:  log,
	}
}

func (uc *assignmentUseCase) GetAssignments(ctx context.Context, input *dto.OwnerInput) ([]model.Assignment, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := requireMaster(input.OwnerType, input.ProductID); err != nil {
		return nil, err
	}
	var assignments []model.Assignment
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		productID, err := uc.repo.FindOwner(ctx, input.OwnerType, input.OwnerID)
		if err != nil {
			return err
		}
		if err := ownedBy(input.OwnerType, input.OwnerID, input.ProductID, productID); err != nil {
			return err
		}
		assignments, err = uc.repo.FindByOwner(ctx, input.OwnerType, input.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (uc *assignmentUseCase) SetAssignments(ctx context.Context, input *dto.SetAssignmentsInput) ([]model.Assignment, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := requireMaster(input.OwnerType, input.ProductID); err != nil {
		return nil, err
	}
	valueIDs := make([]string, 0, len(input.Values))
	seen := make(map[string]bool, len(input.Values))
	for _, v := range input.Values {
		if seen[v.ValueID] {
			return nil, apperr.Validation("DUPLICATE_VALUE", "a characteristic value may be assigned only once",
				apperr.FieldError{Field: "values", Message: "Duplicate value " + v.ValueID})
		}
		seen[v.ValueID] = true
		valueIDs = append(valueIDs, v.ValueID)
	}

	var (
		productID string
		removed   int64
		result    []model.Assignment
	)
	// The whole replacement is re-run once if it hits a deadlock.
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		return uc.tx.Execute(ctx, func(repo assignment.Repository) error {
			var err error
			productID, err = repo.LockOwner(ctx, input.OwnerType, input.OwnerID)
			if err != nil {
				return err
			}
			if err := ownedBy(input.OwnerType, input.OwnerID, input.ProductID, productID); err != nil {
				return err
			}

			active, err := repo.FindActiveValueIDs(ctx, valueIDs)
			if err != nil {
				return err
			}
			if unknown := missing(valueIDs, active); len(unknown) > 0 {
				fields := make([]apperr.FieldError, 0, len(unknown))
				for _, id := range unknown {
					fields = append(fields, apperr.FieldError{Field: "values", Message: "Unknown or inactive value " + id})
				}
				return apperr.Validation("UNKNOWN_VALUE", "some characteristic values do not exist or are inactive", fields...)
			}

			if removed, err = repo.DeleteByOwner(ctx, input.OwnerType, input.OwnerID); err != nil {
				return err
			}
			if err := repo.Insert(ctx, newAssignments(input)); err != nil {
				return err
			}
			result, err = repo.FindByOwner(ctx, input.OwnerType, input.OwnerID)
			return err
		})
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !apperr.IsValidation(err) {
			uc.logger.Error("failed to replace assignments",
				zap.String("owner_type", string(input.OwnerType)),
				zap.String("owner_id", input.OwnerID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	uc.logger.Info("assignments replaced",
		zap.String("owner_type", string(input.OwnerType)),
		zap.String("owner_id", input.OwnerID),
		zap.Int64("removed", removed),
		zap.Int("assigned", len(result)),
	)
	if err := uc.cache.Invalidate(ctx, cache.PrefixFacets, cache.PrefixProductList); err != nil {
		uc.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
	if uc.indexer != nil {
		uc.indexer.Reindex(productID)
	}
	return result, nil
}

func (uc *assignmentUseCase) GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error) {
	if err := validation.Struct(&dto.ProductInput{ProductID: productID}); err != nil {
		return nil, err
	}
	if err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	var doc *model.ConfigurableCharacteristics
	err := postgres.RetryTransient(ctx, retryBackoff, func() error {
		var err error
		doc, err = uc.repo.GetConfigurable(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &model.ConfigurableCharacteristics{ProductID: productID, Characteristics: types.JSONText("[]")}
	}
	return doc, nil
}

func (uc *assignmentUseCase) SetConfigurable(ctx context.Context, input *dto.SetConfigurableInput) (*model.ConfigurableCharacteristics, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	doc, err := normalizeArray(input.Characteristics)
	if err != nil {
		return nil, err
	}
	if err := uc.requireProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	c := &model.ConfigurableCharacteristics{
		ProductID:       input.ProductID,
		Characteristics: doc,
		UpdatedAt:       time.Now(),
	}
	err = postgres.RetryTransient(ctx, retryBackoff, func() error {
		return uc.repo.UpsertConfigurable(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *assignmentUseCase) requireProduct(ctx context.Context, productID string) error {
	return postgres.RetryTransient(ctx, retryBackoff, func() error {
		found, err := uc.repo.FindOwner(ctx, model.OwnerProduct, productID)
		if err != nil {
			return err
		}
		if found == "" {
			return apperr.NotFound("product", productID)
		}
		return nil
	})
}

func requireMaster(ownerType model.OwnerType, productID string) error {
	if ownerType == model.OwnerVariant && productID == "" {
		return apperr.Validation("INVALID_INPUT", "request validation failed",
			apperr.FieldError{Field: "product_id", Message: "This field is required"})
	}
	return nil
}

// ownedBy reports NotFound when the owner is missing or, with want set,
// belongs to another product.
func ownedBy(ownerType model.OwnerType, ownerID, want, got string) error {
	if got == "" || (want != "" && want != got) {
		return apperr.NotFound(string(ownerType), ownerID)
	}
	return nil
}

// normalizeArray accepts only a JSON array and returns it compacted.
func normalizeArray(raw json.RawMessage) (types.JSONText, error) {
	invalid := apperr.Validation("INVALID_CONFIGURABLE", "configurable characteristics must be a JSON array",
		apperr.FieldError{Field: "characteristics", Message: "Must be a JSON array"})

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, invalid
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, invalid
	}
	return types.JSONText(buf.Bytes()), nil
}

func newAssignments(input *dto.SetAssignmentsInput) []model.Assignment {
	now := time.Now()
	ownerID := input.OwnerID
	assignments := make([]model.Assignment, 0, len(input.Values))
	for _, v := range input.Values {
		a := model.Assignment{
			ID:              uuid.New().String(),
			ValueID:         v.ValueID,
			AdditionalValue: v.AdditionalValue,
			CreatedAt:       now,
		}
		if input.OwnerType == model.OwnerVariant {
			a.VariantID = &ownerID
		} else {
			a.ProductID = &ownerID
		}
		assignments = append(assignments, a)
	}
	return assignments
}

func missing(want, have []string) []string {
	var out []string
	for _, id := range want {
		if !slices.Contains(have, id) {
			out = append(out, id)
		}
	}
	return out
}
