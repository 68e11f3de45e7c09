package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deadlock() error {
	return apperr.Transient("deadlock detected", nil)
}

func liveVariantOf(productID string) *model.ProductVariant {
	return &model.ProductVariant{
		BaseModel: model.BaseModel{ID: variantID},
		MasterID:  productID,
		SKU:       "TON-1-L",
		Status:    model.LifecycleActive,
	}
}

func TestWrites_RetryTransientOnce(t *testing.T) {
	zero := int64(0)
	vid := variantID

	tests := []struct {
		name   string
		method string
		args   []interface{}
		ok     []interface{}
		failed []interface{}
		setup  func(repo *MockRepository)
		run    func(t *testing.T, repo *MockRepository) error
	}{
		{
			name:   "create product",
			method: "Create",
			args:   []interface{}{mock.Anything, mock.Anything},
			ok:     []interface{}{nil},
			failed: []interface{}{deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("IsSKUUnique", mock.Anything, "TON-1", "").Return(true, nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				_, err := newUseCase(repo, nil).CreateProduct(context.Background(), &dto.CreateProductInput{
					Name: "Tonometer", SKU: "TON-1", Price: decimal.RequireFromString("10"),
				})
				return err
			},
		},
		{
			name:   "update product",
			method: "Update",
			args:   []interface{}{mock.Anything, mock.Anything},
			ok:     []interface{}{nil},
			failed: []interface{}{deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("FindByID", mock.Anything, productID).Return(tonometer(), nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				_, err := newUseCase(repo, nil).UpdateProduct(context.Background(), &dto.UpdateProductInput{
					ID: productID, Name: "Tonometer", SKU: "TON-1",
					Price: decimal.RequireFromString("90"), Status: model.LifecycleActive,
				})
				return err
			},
		},
		{
			name:   "delete product",
			method: "SoftDelete",
			args:   []interface{}{mock.Anything, productID, mock.Anything},
			ok:     []interface{}{true, nil},
			failed: []interface{}{false, deadlock()},
			run: func(t *testing.T, repo *MockRepository) error {
				return newUseCase(repo, nil).DeleteProduct(context.Background(), productID)
			},
		},
		{
			name:   "product stock",
			method: "UpdateStock",
			args:   []interface{}{mock.Anything, productID, int64(0)},
			ok:     []interface{}{true, nil},
			failed: []interface{}{false, deadlock()},
			run: func(t *testing.T, repo *MockRepository) error {
				return newUseCase(repo, nil).UpdateStock(context.Background(), &dto.StockUpdate{ProductID: productID, Stock: &zero})
			},
		},
		{
			name:   "variant stock",
			method: "UpdateVariantStock",
			args:   []interface{}{mock.Anything, variantID, mock.Anything},
			ok:     []interface{}{true, nil},
			failed: []interface{}{false, deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("FindVariantByID", mock.Anything, variantID).Return(liveVariantOf(productID), nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				return newUseCase(repo, nil).UpdateStock(context.Background(), &dto.StockUpdate{
					ProductID: productID, VariantID: &vid, Stock: &zero,
				})
			},
		},
		{
			name:   "add variant",
			method: "CreateVariant",
			args:   []interface{}{mock.Anything, mock.Anything},
			ok:     []interface{}{nil},
			failed: []interface{}{deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("FindByID", mock.Anything, productID).Return(tonometer(), nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				_, err := newUseCase(repo, nil).AddVariant(context.Background(), &dto.CreateVariantInput{
					ProductID: productID, SKU: "TON-1-L",
				})
				return err
			},
		},
		{
			name:   "update variant",
			method: "UpdateVariant",
			args:   []interface{}{mock.Anything, mock.Anything},
			ok:     []interface{}{nil},
			failed: []interface{}{deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("FindVariantByID", mock.Anything, variantID).Return(liveVariantOf(productID), nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				_, err := newUseCase(repo, nil).UpdateVariant(context.Background(), &dto.UpdateVariantInput{
					ID: variantID, ProductID: productID, SKU: "TON-1-L", Status: model.LifecycleActive,
				})
				return err
			},
		},
		{
			name:   "delete variant",
			method: "SoftDeleteVariant",
			args:   []interface{}{mock.Anything, variantID, mock.Anything},
			ok:     []interface{}{true, nil},
			failed: []interface{}{false, deadlock()},
			setup: func(repo *MockRepository) {
				repo.On("FindVariantByID", mock.Anything, variantID).Return(liveVariantOf(productID), nil)
			},
			run: func(t *testing.T, repo *MockRepository) error {
				return newUseCase(repo, nil).DeleteVariant(context.Background(), productID, variantID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.setup != nil {
				tt.setup(repo)
			}
			repo.On(tt.method, tt.args...).Return(tt.failed...).Once()
			repo.On(tt.method, tt.args...).Return(tt.ok...).Once()

			require.NoError(t, tt.run(t, repo))
			repo.AssertNumberOfCalls(t, tt.method, 2)
		})
	}
}

func TestWrites_SecondTransientReachesCaller(t *testing.T) {
	repo := new(MockRepository)
	zero := int64(0)
	repo.On("UpdateStock", mock.Anything, productID, int64(0)).Return(false, deadlock()).Twice()

	err := newUseCase(repo, nil).UpdateStock(context.Background(), &dto.StockUpdate{ProductID: productID, Stock: &zero})
	assert.True(t, apperr.IsTransient(err))
	repo.AssertNumberOfCalls(t, "UpdateStock", 2)
}

func TestEnsureVariant_CopiesAreIndependent(t *testing.T) {
	repo := new(MockRepository)
	uc := newUseCase(repo, nil)

	existing := liveVariantOf(productID)
	existing.Attributes = model.Attributes{"size": "L"}
	repo.On("FindByID", mock.Anything, productID).Return(tonometer(), nil)
	repo.On("FirstVariant", mock.Anything, productID).Return(existing, nil)

	first, err := uc.EnsureVariant(context.Background(), productID)
	require.NoError(t, err)
	first.Attributes["size"] = "XL"

	assert.Equal(t, "L", existing.Attributes["size"])
}
