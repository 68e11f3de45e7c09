package usecase

import (
	"context"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/validation"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SearchIndexMapping is created once at startup.
const SearchIndexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"name": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"sku": { "type": "keyword" },
			"status": { "type": "keyword" },
			"category_id": { "type": "keyword" },
			"manufacturer_id": { "type": "keyword" },
			"price": { "type": "scaled_float", "scaling_factor": 100 },
			"value_ids": { "type": "keyword" },
			"in_stock": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

const syncTimeout = 10 * time.Second

type searchDocument struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Status         model.Lifecycle `json:"status"`
	CategoryID     *string         `json:"category_id"`
	ManufacturerID *string         `json:"manufacturer_id"`
	Price          decimal.Decimal `json:"price"`
	ValueIDs       []string        `json:"value_ids"`
	InStock        bool            `json:"in_stock"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type listResult struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if err := validation.Struct(filters); err != nil {
		return nil, 0, err
	}
	filters.Normalize()

	cacheKey, err := cache.HashKey(cache.PrefixProductList, filters)
	if err == nil {
		var cached listResult
		if hit, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			uc.logger.Warn("failed to read product list cache", zap.Error(err))
		} else if hit {
			return cached.Products, cached.Total, nil
		}
	}

	if uc.es != nil && (filters.SearchQuery != "" || len(filters.ValueIDs) > 0) {
		products, total, err := uc.searchProducts(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("product search failed, falling back to database", zap.Error(err))
	}

	var result listResult
	err = postgres.RetryTransient(ctx, retryBackoff, func() error {
		var err error
		result.Products, result.Total, err = uc.repo.FindAll(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, result, uc.opts.ListCacheTTL); err != nil {
			uc.logger.Warn("failed to write product list cache", zap.Error(err))
		}
	}
	return result.Products, result.Total, nil
}

// searchProducts asks the index for matching ids and loads the rows from the
// database, so callers always see current prices and stock.
func (uc *productUseCase) searchProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]interface{}{}
	if filters.SearchQuery != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  filters.SearchQuery,
				"type":   "bool_prefix",
				"fields": []string{"name^3", "sku"},
			},
		})
	}

	filter := []map[string]interface{}{}
	for _, id := range filters.ValueIDs {
		filter = append(filter, term("value_ids", id))
	}
	if filters.CategoryID != "" {
		filter = append(filter, term("category_id", filters.CategoryID))
	}
	if filters.ManufacturerID != "" {
		filter = append(filter, term("manufacturer_id", filters.ManufacturerID))
	}
	if filters.Status != "" {
		filter = append(filter, term("status", string(filters.Status)))
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":     must,
				"filter":   filter,
				"must_not": []map[string]interface{}{term("status", string(model.LifecycleDeleted))},
			},
		},
		"from":    filters.Offset(),
		"size":    filters.PageSize,
		"_source": false,
	}
	if sort := searchSort(filters); sort != nil {
		q["sort"] = sort
	}

	res, err := uc.es.Search(ctx, uc.opts.SearchIndex, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	products, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	total := res.Hits.Total.Value
	if stale := staleHits(ids, products); len(stale) > 0 {
		// the index lags the database; drop the gone rows from the count and the index
		total = max(total-len(stale), 0)
		uc.logger.Warn("search index returned products missing from the database",
			zap.Strings("product_ids", stale))
		for _, id := range stale {
			uc.Reindex(id)
		}
	}
	return products, total, nil
}

func staleHits(ids []string, products []model.Product) []string {
	if len(products) == len(ids) {
		return nil
	}
	found := make(map[string]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	var stale []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

func searchSort(filters *dto.ProductFilters) []map[string]interface{} {
	var field string
	switch filters.SortBy {
	case "name":
		field = "name.raw"
	case "price":
		field = "price"
	default:
		// created_at is not indexed; relevance order applies
		return nil
	}
	order := "desc"
	if filters.SortOrder == "asc" {
		order = "asc"
	}
	return []map[string]interface{}{{field: map[string]interface{}{"order": order}}, {"id": "asc"}}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

// Reindex refreshes the product's search document without blocking the caller.
func (uc *productUseCase) Reindex(productID string) {
	if uc.es == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		uc.syncToElastic(ctx, productID)
	}()
}

func (uc *productUseCase) syncToElastic(ctx context.Context, productID string) {
	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		uc.logger.Error("failed to load product for indexing", zap.String("product_id", productID), zap.Error(err))
		return
	}
	if p == nil || p.Status.IsDeleted() {
		if err := uc.es.Delete(ctx, uc.opts.SearchIndex, productID); err != nil {
			uc.logger.Error("failed to delete product from search index", zap.String("product_id", productID), zap.Error(err))
		}
		return
	}

	valueIDs, err := uc.repo.ValueIDs(ctx, p.ID)
	if err != nil {
		uc.logger.Error("failed to load product values for indexing", zap.String("product_id", productID), zap.Error(err))
		return
	}
	variants, err := uc.repo.ListVariants(ctx, p.ID)
	if err != nil {
		uc.logger.Error("failed to load variants for indexing", zap.String("product_id", productID), zap.Error(err))
		return
	}

	doc := searchDocument{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		Status:         p.Status,
		CategoryID:     p.CategoryID,
		ManufacturerID: p.ManufacturerID,
		Price:          p.Price,
		ValueIDs:       valueIDs,
		InStock:        inStock(p, variants),
		UpdatedAt:      p.UpdatedAt,
	}
	if err := uc.es.Index(ctx, uc.opts.SearchIndex, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", productID), zap.Error(err))
	}
}

// inStock matches the facet engine: own stock, or a live variant with a
// positive stock override.
func inStock(p *model.Product, variants []model.ProductVariant) bool {
	if p.StockQuantity > 0 {
		return true
	}
	for i := range variants {
		v := &variants[i]
		if v.IsLive() && v.StockOverride.Valid && v.StockOverride.V > 0 {
			return true
		}
	}
	return false
}
