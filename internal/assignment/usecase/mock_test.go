package usecase

import (
	"context"

	"github.com/fekuna/medequip-catalog-service/internal/assignment"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock assignment repository. Execute runs fn against
// the mock itself.
type MockRepository struct {
	mock.Mock
	txCalls int
}

func (m *MockRepository) Execute(ctx context.Context, fn func(repo assignment.Repository) error) error {
	m.txCalls++
	return fn(m)
}

func (m *MockRepository) FindOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error) {
	args := m.Called(ctx, ownerType, ownerID)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) LockOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error) {
	args := m.Called(ctx, ownerType, ownerID)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) FindByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) ([]model.Assignment, error) {
	args := m.Called(ctx, ownerType, ownerID)
	return args.Get(0).([]model.Assignment), args.Error(1)
}

func (m *MockRepository) FindActiveValueIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) DeleteByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerType, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Insert(ctx context.Context, assignments []model.Assignment) error {
	return m.Called(ctx, assignments).Error(0)
}

func (m *MockRepository) GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfigurableCharacteristics), args.Error(1)
}

func (m *MockRepository) UpsertConfigurable(ctx context.Context, doc *model.ConfigurableCharacteristics) error {
	return m.Called(ctx, doc).Error(0)
}

type recordingIndexer struct {
	ids []string
}

func (r *recordingIndexer) Reindex(productID string) {
	r.ids = append(r.ids, productID)
}
