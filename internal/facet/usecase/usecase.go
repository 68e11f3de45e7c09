package usecase

import (
	"context"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/facet"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const retryBackoff = 100 * time.Millisecond

type Options struct {
	GuardDepth int
	CacheTTL   time.Duration
}

type facetUseCase struct {
	repo   facet.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
	opts   Options
}

// NewFacetUseCase wires the facet engine. redis may be nil.
func NewFacetUseCase(repo facet.Repository, redis *cache.RedisClient, log logger.ZapLogger, opts Options) facet.UseCase {
	return &facetUseCase{
		repo:   repo,
		cache:  redis,
		logger: log,
		opts:   opts,
	}
}

func (uc *facetUseCase) GetFacets(ctx context.Context, filter *dto.FacetFilter) ([]model.FacetSection, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}

	key, err := cache.HashKey(cache.PrefixFacets, filter)
	if err != nil {
		return nil, err
	}
	var cached []model.FacetSection
	if hit, err := uc.cache.GetJSON(ctx, key, &cached); err != nil {
		uc.logger.Warn("failed to read facet cache", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	var (
		groups []model.CharacteristicGroup
		rows   []facet.CountRow
	)
	err = postgres.RetryTransient(ctx, retryBackoff, func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			groups, err = uc.repo.ListActiveGroups(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = uc.repo.CountProducts(gctx, filter)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	sections, err := facet.Assemble(groups, rows, uc.opts.GuardDepth)
	if err != nil {
		uc.logger.Error("characteristic taxonomy is inconsistent", zap.Error(err))
		return nil, err
	}

	if err := uc.cache.SetJSON(ctx, key, sections, uc.opts.CacheTTL); err != nil {
		uc.logger.Warn("failed to cache facets", zap.Error(err))
	}
	return sections, nil
}
