package usecase

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]model.Product), args.Int(1), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateStock(ctx context.Context, id string, stock int64) (bool, error) {
	args := m.Called(ctx, id, stock)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ValueIDs(ctx context.Context, productID string) ([]string, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRepository) FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductVariant), args.Error(1)
}

func (m *MockRepository) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]model.ProductVariant), args.Error(1)
}

func (m *MockRepository) FirstVariant(ctx context.Context, productID string) (*model.ProductVariant, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductVariant), args.Error(1)
}

func (m *MockRepository) InsertDefaultVariant(ctx context.Context, v *model.ProductVariant) (bool, error) {
	args := m.Called(ctx, v)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRepository) SoftDeleteVariant(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateVariantStock(ctx context.Context, id string, stock sql.Null[int64]) (bool, error) {
	args := m.Called(ctx, id, stock)
	return args.Bool(0), args.Error(1)
}

// memRepository keeps one product's variants in memory and enforces the
// single live default variant rule the way the database index does.
type memRepository struct {
	product.Repository

	mu       sync.Mutex
	products map[string]model.Product
	variants []model.ProductVariant
	inserts  int
	lookups  int
	// hook runs once, right after the hookAt-th variant lookup returns, so a
	// test can interleave a second caller.
	hookAt int
	hook   func()
}

func newMemRepository(products ...model.Product) *memRepository {
	r := &memRepository{products: map[string]model.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memRepository) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memRepository) FirstVariant(_ context.Context, productID string) (*model.ProductVariant, error) {
	r.mu.Lock()
	var found *model.ProductVariant
	for i := range r.variants {
		if r.variants[i].MasterID == productID && !r.variants[i].Status.IsDeleted() {
			v := r.variants[i]
			found = &v
			break
		}
	}
	r.lookups++
	var hook func()
	if r.lookups == r.hookAt {
		hook, r.hook = r.hook, nil
	}
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return found, nil
}

func (r *memRepository) InsertDefaultVariant(_ context.Context, v *model.ProductVariant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.variants {
		if existing.MasterID == v.MasterID && existing.IsDefault && !existing.Status.IsDeleted() {
			return false, nil
		}
	}
	r.inserts++
	r.variants = append(r.variants, *v)
	return true, nil
}

func (r *memRepository) liveVariants(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.variants {
		if v.MasterID == productID && !v.Status.IsDeleted() {
			n++
		}
	}
	return n
}
