package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/facet"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.CharacteristicGroup), args.Error(1)
}

func (m *MockRepository) CountProducts(ctx context.Context, filter *dto.FacetFilter) ([]facet.CountRow, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]facet.CountRow), args.Error(1)
}

func newUseCase(repo *MockRepository) (facet.UseCase, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewFacetUseCase(repo, nil, logger.FromZap(zap.New(core)), Options{GuardDepth: 8, CacheTTL: time.Minute}), logs
}

func sectionAGroupB() []model.CharacteristicGroup {
	a := "A"
	return []model.CharacteristicGroup{
		{BaseModel: model.BaseModel{ID: "A"}, Name: "Dimensions", IsActive: true},
		{BaseModel: model.BaseModel{ID: "B"}, Name: "Cuff size", ParentID: &a, IsActive: true},
	}
}

func TestGetFacets_SoftDeletedCarrierDropsGroup(t *testing.T) {
	repo := new(MockRepository)
	uc, _ := newUseCase(repo)
	v1 := "V1"

	repo.On("ListActiveGroups", mock.Anything).Return(sectionAGroupB(), nil)
	repo.On("CountProducts", mock.Anything, mock.Anything).Return([]facet.CountRow{
		{GroupID: "B", ProductCount: 1},
		{GroupID: "B", ValueID: &v1, Value: "Adult", ProductCount: 1},
	}, nil).Once()

	sections, err := uc.GetFacets(context.Background(), &dto.FacetFilter{})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "A", sections[0].ID)
	require.Len(t, sections[0].Groups, 1)
	assert.Equal(t, "B", sections[0].Groups[0].ID)
	assert.Equal(t, 1, sections[0].Groups[0].Values[0].ProductCount)

	// P1 soft-deleted: the live-product join no longer yields its assignment
	repo.On("CountProducts", mock.Anything, mock.Anything).Return([]facet.CountRow{}, nil).Once()

	sections, err = uc.GetFacets(context.Background(), &dto.FacetFilter{})
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestGetFacets_PassesFilter(t *testing.T) {
	repo := new(MockRepository)
	uc, _ := newUseCase(repo)
	category := "0b3c2d1e-0000-4000-8000-000000000001"

	repo.On("ListActiveGroups", mock.Anything).Return([]model.CharacteristicGroup{}, nil)
	repo.On("CountProducts", mock.Anything, mock.MatchedBy(func(f *dto.FacetFilter) bool {
		return f.CategoryID == category && f.SearchQuery == "tono"
	})).Return([]facet.CountRow{}, nil)

	_, err := uc.GetFacets(context.Background(), &dto.FacetFilter{CategoryID: category, SearchQuery: "tono"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetFacets_InvalidFilter(t *testing.T) {
	repo := new(MockRepository)
	uc, _ := newUseCase(repo)

	_, err := uc.GetFacets(context.Background(), &dto.FacetFilter{ManufacturerID: "not-a-uuid"})
	assert.True(t, apperr.IsValidation(err))
	repo.AssertNotCalled(t, "CountProducts", mock.Anything, mock.Anything)
}

func TestGetFacets_RetriesTransientOnce(t *testing.T) {
	repo := new(MockRepository)
	uc, _ := newUseCase(repo)

	repo.On("ListActiveGroups", mock.Anything).Return(sectionAGroupB(), nil)
	repo.On("CountProducts", mock.Anything, mock.Anything).
		Return([]facet.CountRow(nil), apperr.Transient("count facet products", nil)).Once()
	repo.On("CountProducts", mock.Anything, mock.Anything).Return([]facet.CountRow{}, nil).Once()

	sections, err := uc.GetFacets(context.Background(), &dto.FacetFilter{})
	require.NoError(t, err)
	assert.Empty(t, sections)
	repo.AssertNumberOfCalls(t, "CountProducts", 2)
}

func TestGetFacets_CycleIsLogged(t *testing.T) {
	repo := new(MockRepository)
	uc, logs := newUseCase(repo)
	a, b, v := "a", "b", "v"

	repo.On("ListActiveGroups", mock.Anything).Return([]model.CharacteristicGroup{
		{BaseModel: model.BaseModel{ID: "a"}, Name: "A", ParentID: &b, IsActive: true},
		{BaseModel: model.BaseModel{ID: "b"}, Name: "B", ParentID: &a, IsActive: true},
	}, nil)
	repo.On("CountProducts", mock.Anything, mock.Anything).Return([]facet.CountRow{
		{GroupID: "a", ProductCount: 1},
		{GroupID: "a", ValueID: &v, Value: "V", ProductCount: 1},
	}, nil)

	_, err := uc.GetFacets(context.Background(), &dto.FacetFilter{})
	assert.True(t, apperr.IsIntegrity(err))
	assert.Equal(t, 1, logs.FilterMessage("characteristic taxonomy is inconsistent").Len())
}
