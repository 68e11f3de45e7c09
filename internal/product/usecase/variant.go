package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const variantLockTTL = 10 * time.Second

func (uc *productUseCase) AddVariant(ctx context.Context, input *dto.CreateVariantInput) (*model.ProductVariant, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validateOverrides(input.PriceOverride, input.DiscountPriceOverride); err != nil {
		return nil, err
	}
	p, err := uc.liveProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v := &model.ProductVariant{
		BaseModel:             model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MasterID:              p.ID,
		SKU:                   input.SKU,
		PriceOverride:         input.PriceOverride,
		DiscountPriceOverride: input.DiscountPriceOverride,
		StockOverride:         nullStock(input.StockOverride),
		Attributes:            attributesOrEmpty(input.Attributes),
		Status:                model.LifecycleActive,
	}
	if err := uc.retry(ctx, func() error { return uc.repo.CreateVariant(ctx, v) }); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	uc.Reindex(p.ID)
	return v, nil
}

func (uc *productUseCase) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	if _, err := uc.liveProduct(ctx, productID); err != nil {
		return nil, err
	}
	var variants []model.ProductVariant
	err := uc.retry(ctx, func() error {
		var err error
		variants, err = uc.repo.ListVariants(ctx, productID)
		return err
	})
	return variants, err
}

func (uc *productUseCase) UpdateVariant(ctx context.Context, input *dto.UpdateVariantInput) (*model.ProductVariant, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validateOverrides(input.PriceOverride, input.DiscountPriceOverride); err != nil {
		return nil, err
	}
	v, err := uc.liveVariant(ctx, input.ProductID, input.ID)
	if err != nil {
		return nil, err
	}

	v.SKU = input.SKU
	v.PriceOverride = input.PriceOverride
	v.DiscountPriceOverride = input.DiscountPriceOverride
	v.StockOverride = nullStock(input.StockOverride)
	v.Attributes = attributesOrEmpty(input.Attributes)
	v.Status = input.Status
	v.UpdatedAt = time.Now()
	if err := uc.retry(ctx, func() error { return uc.repo.UpdateVariant(ctx, v) }); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	uc.Reindex(v.MasterID)
	return v, nil
}

func (uc *productUseCase) DeleteVariant(ctx context.Context, productID, variantID string) error {
	v, err := uc.liveVariant(ctx, productID, variantID)
	if err != nil {
		return err
	}
	var deleted bool
	err = uc.retry(ctx, func() error {
		var err error
		deleted, err = uc.repo.SoftDeleteVariant(ctx, v.ID, time.Now())
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("product variant", variantID)
	}

	uc.invalidate(ctx)
	uc.Reindex(productID)
	return nil
}

// EnsureVariant coalesces concurrent calls for one product in this process;
// the redis lock and the single-default-variant index cover other instances.
func (uc *productUseCase) EnsureVariant(ctx context.Context, productID string) (*model.ProductVariant, error) {
	res, err, _ := uc.ensureGroup.Do(productID, func() (any, error) {
		return uc.ensureVariant(context.WithoutCancel(ctx), productID)
	})
	if err != nil {
		return nil, err
	}
	v := *res.(*model.ProductVariant)
	v.Attributes = maps.Clone(v.Attributes)
	return &v, nil
}

func (uc *productUseCase) ensureVariant(ctx context.Context, productID string) (*model.ProductVariant, error) {
	p, err := uc.liveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.FirstVariant(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	lockKey := cache.PrefixVariantLock + p.ID
	token := uuid.New().String()
	locked, err := uc.cache.AcquireLock(ctx, lockKey, token, variantLockTTL)
	if err != nil {
		uc.logger.Warn("variant lock unavailable", zap.String("product_id", p.ID), zap.Error(err))
	}
	if locked {
		defer func() {
			if err := uc.cache.ReleaseLock(ctx, lockKey, token); err != nil {
				uc.logger.Warn("failed to release variant lock", zap.String("product_id", p.ID), zap.Error(err))
			}
		}()
		// another instance may have finished while we waited for the lock
		if existing, err = uc.repo.FirstVariant(ctx, p.ID); err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := time.Now()
	v := &model.ProductVariant{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MasterID:   p.ID,
		SKU:        fmt.Sprintf("%s-%d", p.SKU, now.UnixMilli()),
		Attributes: model.Attributes{},
		IsDefault:  true,
		Status:     model.LifecycleActive,
	}
	var inserted bool
	err = uc.retry(ctx, func() error {
		var err error
		inserted, err = uc.repo.InsertDefaultVariant(ctx, v)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		existing, err = uc.repo.FirstVariant(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.Conflict("VARIANT_CONFLICT", "default variant changed concurrently, retry", nil)
		}
		return existing, nil
	}

	uc.logger.Info("default variant created",
		zap.String("product_id", p.ID),
		zap.String("variant_id", v.ID),
		zap.String("sku", v.SKU),
	)
	uc.invalidate(ctx)
	uc.Reindex(p.ID)
	return v, nil
}

func validateOverrides(price, discount decimal.NullDecimal) error {
	var fields []apperr.FieldError
	if price.Valid && price.Decimal.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "price_override", Message: "Must be zero or greater"})
	}
	if discount.Valid && discount.Decimal.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "discount_price_override", Message: "Must be zero or greater"})
	}
	if len(fields) > 0 {
		return apperr.Validation("INVALID_INPUT", "request validation failed", fields...)
	}
	return nil
}

func nullStock(stock *int64) sql.Null[int64] {
	if stock == nil {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: *stock, Valid: true}
}
