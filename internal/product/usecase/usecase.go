package usecase

import (
	"context"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/search"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const retryBackoff = 100 * time.Millisecond

type Options struct {
	SearchIndex  string
	ListCacheTTL time.Duration
}

type productUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
	opts   Options

	ensureGroup singleflight.Group
}

// NewProductUseCase wires the product use cases. redis and es may be nil.
func NewProductUseCase(repo product.Repository, redis *cache.RedisClient, es *search.Client, log logger.ZapLogger, opts Options) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  redis,
		es:     es,
		logger: log,
		opts:   opts,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validatePrices(input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}
	if err := uc.ensureSKUUnique(ctx, input.SKU, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:           input.Name,
		SKU:            input.SKU,
		Price:          input.Price,
		DiscountPrice:  input.DiscountPrice,
		StockQuantity:  input.StockQuantity,
		CategoryID:     input.CategoryID,
		ManufacturerID: input.ManufacturerID,
		BaseAttributes: attributesOrEmpty(input.BaseAttributes),
		Status:         model.LifecycleActive,
	}
	if err := uc.retry(ctx, func() error { return uc.repo.Create(ctx, p) }); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	uc.Reindex(p.ID)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.liveProduct(ctx, id)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validatePrices(input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}
	p, err := uc.liveProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p.SKU != input.SKU {
		if err := uc.ensureSKUUnique(ctx, input.SKU, p.ID); err != nil {
			return nil, err
		}
	}

	p.Name = input.Name
	p.SKU = input.SKU
	p.Price = input.Price
	p.DiscountPrice = input.DiscountPrice
	p.StockQuantity = input.StockQuantity
	p.CategoryID = input.CategoryID
	p.ManufacturerID = input.ManufacturerID
	p.BaseAttributes = attributesOrEmpty(input.BaseAttributes)
	p.Status = input.Status
	p.UpdatedAt = time.Now()
	if err := uc.retry(ctx, func() error { return uc.repo.Update(ctx, p) }); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	uc.Reindex(p.ID)
	return p, nil
}

// DeleteProduct marks the product deleted. Its variants and assignments stay
// in place but no longer count anywhere.
func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	var deleted bool
	err := uc.retry(ctx, func() error {
		var err error
		deleted, err = uc.repo.SoftDelete(ctx, id, time.Now())
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("product", id)
	}

	uc.logger.Info("product deleted", zap.String("product_id", id))
	uc.invalidate(ctx)
	uc.Reindex(id)
	return nil
}

func (uc *productUseCase) ResolveEffective(ctx context.Context, input *dto.ResolveInput) (*model.EffectiveProduct, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	p, err := uc.liveProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	var v *model.ProductVariant
	if input.VariantID != nil {
		if v, err = uc.liveVariant(ctx, p.ID, *input.VariantID); err != nil {
			return nil, err
		}
	}

	eff := product.Resolve(p, v)
	return &eff, nil
}

func (uc *productUseCase) UpdateStock(ctx context.Context, update *dto.StockUpdate) error {
	if err := validation.Struct(update); err != nil {
		return err
	}

	if update.VariantID != nil {
		v, err := uc.liveVariant(ctx, update.ProductID, *update.VariantID)
		if err != nil {
			return err
		}
		var updated bool
		err = uc.retry(ctx, func() error {
			var err error
			updated, err = uc.repo.UpdateVariantStock(ctx, v.ID, nullStock(update.Stock))
			return err
		})
		if err != nil {
			return err
		}
		if !updated {
			return apperr.NotFound("product variant", v.ID)
		}
	} else {
		if update.Stock == nil {
			return apperr.Validation("INVALID_INPUT", "stock is required for a product stock update",
				apperr.FieldError{Field: "stock", Message: "This field is required"})
		}
		var updated bool
		err := uc.retry(ctx, func() error {
			var err error
			updated, err = uc.repo.UpdateStock(ctx, update.ProductID, *update.Stock)
			return err
		})
		if err != nil {
			return err
		}
		if !updated {
			return apperr.NotFound("product", update.ProductID)
		}
	}

	uc.invalidate(ctx)
	uc.Reindex(update.ProductID)
	return nil
}

func (uc *productUseCase) liveProduct(ctx context.Context, id string) (*model.Product, error) {
	var p *model.Product
	err := uc.retry(ctx, func() error {
		var err error
		p, err = uc.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil || p.Status.IsDeleted() {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

// liveVariant loads a non-deleted variant that belongs to productID.
func (uc *productUseCase) liveVariant(ctx context.Context, productID, variantID string) (*model.ProductVariant, error) {
	var v *model.ProductVariant
	err := uc.retry(ctx, func() error {
		var err error
		v, err = uc.repo.FindVariantByID(ctx, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if v == nil || v.Status.IsDeleted() || v.MasterID != productID {
		return nil, apperr.NotFound("product variant", variantID)
	}
	return v, nil
}

func (uc *productUseCase) ensureSKUUnique(ctx context.Context, sku, excludeID string) error {
	unique, err := uc.repo.IsSKUUnique(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if !unique {
		return apperr.Conflict("SKU_EXISTS", "SKU already exists", nil)
	}
	return nil
}

// retry re-runs a single repository call once when it fails transiently.
func (uc *productUseCase) retry(ctx context.Context, fn func() error) error {
	return postgres.RetryTransient(ctx, retryBackoff, fn)
}

func (uc *productUseCase) invalidate(ctx context.Context) {
	if err := uc.cache.Invalidate(ctx, cache.PrefixFacets, cache.PrefixProductList); err != nil {
		uc.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func validatePrices(price decimal.Decimal, discount decimal.NullDecimal) error {
	var fields []apperr.FieldError
	if price.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "Must be zero or greater"})
	}
	if discount.Valid {
		if discount.Decimal.IsNegative() {
			fields = append(fields, apperr.FieldError{Field: "discount_price", Message: "Must be zero or greater"})
		} else if discount.Decimal.GreaterThan(price) {
			fields = append(fields, apperr.FieldError{Field: "discount_price", Message: "Must not exceed price"})
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("INVALID_INPUT", "request validation failed", fields...)
	}
	return nil
}

func attributesOrEmpty(a model.Attributes) model.Attributes {
	if a == nil {
		return model.Attributes{}
	}
	return a
}
