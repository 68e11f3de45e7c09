package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/middleware"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) GetFacets(ctx context.Context, filter *dto.FacetFilter) ([]model.FacetSection, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FacetSection), args.Error(1)
}

func sections() []model.FacetSection {
	return []model.FacetSection{{
		ID:   "A",
		Name: "Dimensions",
		Groups: []model.FacetGroup{{
			ID:           "B",
			Name:         "Cuff size",
			ProductCount: 1,
			Values:       []model.FacetValue{{ID: "V1", Value: "Adult", ProductCount: 1}},
		}},
	}}
}

func TestGRPC_GetFacets(t *testing.T) {
	uc := new(MockUseCase)
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, NewFacetHandler(uc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	uc.On("GetFacets", mock.Anything, &dto.FacetFilter{SearchQuery: "cuff"}).Return(sections(), nil)
	uc.On("GetFacets", mock.Anything, &dto.FacetFilter{CategoryID: "bad"}).
		Return(nil, apperr.Validation("INVALID_INPUT", "invalid"))

	resp, err := rpc.Invoke[dto.FacetFilter, FacetsResponse](context.Background(), conn, ServiceName, "GetFacets",
		&dto.FacetFilter{SearchQuery: "cuff"})
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, 1, resp.Sections[0].Groups[0].Values[0].ProductCount)

	_, err = rpc.Invoke[dto.FacetFilter, FacetsResponse](context.Background(), conn, ServiceName, "GetFacets",
		&dto.FacetFilter{CategoryID: "bad"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHTTP_GetFacets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uc := new(MockUseCase)
	r := gin.New()
	r.Use(middleware.RequestContext())
	NewHTTPHandler(uc).RegisterRoutes(r.Group("/api/v1"))

	uc.On("GetFacets", mock.Anything, &dto.FacetFilter{ManufacturerID: "m1", SearchQuery: "cuff"}).Return(sections(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/facets?manufacturer_id=m1&search=cuff", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		httpapi.Response
		Data []model.FacetSection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Cuff size", resp.Data[0].Groups[0].Name)
}
