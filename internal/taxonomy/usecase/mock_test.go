package usecase

import (
	"context"
	"sync"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock taxonomy repository. Execute runs fn against the
// mock itself and records whether fn failed.
type MockRepository struct {
	mock.Mock
	txCalls     int
	txFailures  int
	executeLock sync.Mutex
}

func (m *MockRepository) Execute(ctx context.Context, fn func(repo taxonomy.Repository) error) error {
	m.executeLock.Lock()
	defer m.executeLock.Unlock()
	m.txCalls++
	err := fn(m)
	if err != nil {
		m.txFailures++
	}
	return err
}

func (m *MockRepository) ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.CharacteristicGroup), args.Error(1)
}

func (m *MockRepository) ListActiveValues(ctx context.Context) ([]model.CharacteristicValue, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.CharacteristicValue), args.Error(1)
}

func (m *MockRepository) FindGroupByID(ctx context.Context, id string) (*model.CharacteristicGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CharacteristicGroup), args.Error(1)
}

func (m *MockRepository) LockGroup(ctx context.Context, id string) (*model.CharacteristicGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CharacteristicGroup), args.Error(1)
}

func (m *MockRepository) FindChildGroups(ctx context.Context, parentIDs []string) ([]model.CharacteristicGroup, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).([]model.CharacteristicGroup), args.Error(1)
}

func (m *MockRepository) NextGroupSortOrder(ctx context.Context, parentID *string) (int, error) {
	args := m.Called(ctx, parentID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CreateGroup(ctx context.Context, group *model.CharacteristicGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockRepository) UpdateGroup(ctx context.Context, group *model.CharacteristicGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockRepository) FindValueByID(ctx context.Context, id string) (*model.CharacteristicValue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CharacteristicValue), args.Error(1)
}

func (m *MockRepository) ListGroupValues(ctx context.Context, groupID string) ([]model.CharacteristicValue, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]model.CharacteristicValue), args.Error(1)
}

func (m *MockRepository) NextValueSortOrder(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CreateValue(ctx context.Context, value *model.CharacteristicValue) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockRepository) CountValues(ctx context.Context, groupIDs []string) (int, error) {
	args := m.Called(ctx, groupIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountAssignments(ctx context.Context, groupIDs []string) (int, error) {
	args := m.Called(ctx, groupIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountAffectedProducts(ctx context.Context, groupIDs []string) (int, error) {
	args := m.Called(ctx, groupIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) SampleAffectedProducts(ctx context.Context, groupIDs []string, limit int) ([]model.ProductRef, error) {
	args := m.Called(ctx, groupIDs, limit)
	return args.Get(0).([]model.ProductRef), args.Error(1)
}

func (m *MockRepository) DeleteAssignmentsByGroups(ctx context.Context, groupIDs []string) (int64, error) {
	args := m.Called(ctx, groupIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteValuesByGroups(ctx context.Context, groupIDs []string) (int64, error) {
	args := m.Called(ctx, groupIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteGroups(ctx context.Context, groupIDs []string) (int64, error) {
	args := m.Called(ctx, groupIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteAssignmentsByValue(ctx context.Context, valueID string) (int64, error) {
	args := m.Called(ctx, valueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteValue(ctx context.Context, valueID string) (int64, error) {
	args := m.Called(ctx, valueID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher records published audit events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRepository) AffectedProductIDs(ctx context.Context, groupIDs []string) ([]string, error) {
	args := m.Called(ctx, groupIDs)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) ValueProductIDs(ctx context.Context, valueID string) ([]string, error) {
	args := m.Called(ctx, valueID)
	return args.Get(0).([]string), args.Error(1)
}

type recordingIndexer struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingIndexer) Reindex(productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, productID)
}
