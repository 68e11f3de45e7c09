package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/assignment/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/middleware"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/rpc"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx/types"
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

func (m *MockUseCase) GetAssignments(ctx context.Context, input *dto.OwnerInput) ([]model.Assignment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Assignment), args.Error(1)
}

func (m *MockUseCase) SetAssignments(ctx context.Context, input *dto.SetAssignmentsInput) ([]model.Assignment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Assignment), args.Error(1)
}

func (m *MockUseCase) GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfigurableCharacteristics), args.Error(1)
}

func (m *MockUseCase) SetConfigurable(ctx context.Context, input *dto.SetConfigurableInput) (*model.ConfigurableCharacteristics, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfigurableCharacteristics), args.Error(1)
}

func dial(t *testing.T, uc *MockUseCase) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.ContextInterceptor()))
	Register(srv, NewAssignmentHandler(uc, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPC_SetAssignments(t *testing.T) {
	uc := new(MockUseCase)
	conn := dial(t, uc)

	uc.On("SetAssignments", mock.Anything, mock.MatchedBy(func(in *dto.SetAssignmentsInput) bool {
		return in.OwnerType == model.OwnerVariant && in.OwnerID == "v1" && in.ProductID == "p1" && len(in.Values) == 1
	})).Return([]model.Assignment{{ID: "a1", ValueID: "val1"}}, nil)
	uc.On("SetAssignments", mock.Anything, mock.MatchedBy(func(in *dto.SetAssignmentsInput) bool {
		return in.OwnerID == "gone"
	})).Return(nil, apperr.NotFound("variant", "gone"))

	resp, err := rpc.Invoke[dto.SetAssignmentsInput, AssignmentsResponse](context.Background(), conn, ServiceName, "SetAssignments",
		&dto.SetAssignmentsInput{OwnerType: model.OwnerVariant, OwnerID: "v1", ProductID: "p1", Values: []dto.AssignedValue{{ValueID: "val1"}}})
	require.NoError(t, err)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "val1", resp.Assignments[0].ValueID)

	_, err = rpc.Invoke[dto.SetAssignmentsInput, AssignmentsResponse](context.Background(), conn, ServiceName, "SetAssignments",
		&dto.SetAssignmentsInput{OwnerType: model.OwnerVariant, OwnerID: "gone"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_GetConfigurable(t *testing.T) {
	uc := new(MockUseCase)
	conn := dial(t, uc)

	uc.On("GetConfigurable", mock.Anything, "p1").Return(&model.ConfigurableCharacteristics{
		ProductID:       "p1",
		Characteristics: types.JSONText(`[{"group_id":"g1"}]`),
	}, nil)

	resp, err := rpc.Invoke[dto.ProductInput, ConfigurableResponse](context.Background(), conn, ServiceName, "GetConfigurable",
		&dto.ProductInput{ProductID: "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"group_id":"g1"}]`, string(resp.Configurable.Characteristics))
}

func newRouter(uc *MockUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestContext())
	NewHTTPHandler(uc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHTTP_VariantCharacteristics(t *testing.T) {
	uc := new(MockUseCase)
	r := newRouter(uc)

	uc.On("SetAssignments", mock.Anything, mock.MatchedBy(func(in *dto.SetAssignmentsInput) bool {
		return in.OwnerType == model.OwnerVariant && in.OwnerID == "v1" && in.ProductID == "p1" &&
			len(in.Values) == 1 && in.Values[0].AdditionalValue != nil && *in.Values[0].AdditionalValue == "left"
	})).Return([]model.Assignment{{ID: "a1"}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/p1/variants/v1/characteristics",
		strings.NewReader(`{"values":[{"value_id":"val1","additional_value":"left"}]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestHTTP_VariantOfAnotherProduct(t *testing.T) {
	uc := new(MockUseCase)
	r := newRouter(uc)
	uc.On("GetAssignments", mock.Anything, &dto.OwnerInput{OwnerType: model.OwnerVariant, OwnerID: "vB", ProductID: "pA"}).
		Return(nil, apperr.NotFound("variant", "vB"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/pA/variants/vB/characteristics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	uc.AssertExpectations(t)
}

func TestHTTP_ProductCharacteristicsNotFound(t *testing.T) {
	uc := new(MockUseCase)
	r := newRouter(uc)
	uc.On("GetAssignments", mock.Anything, &dto.OwnerInput{OwnerType: model.OwnerProduct, OwnerID: "p9", ProductID: "p9"}).
		Return(nil, apperr.NotFound("product", "p9"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/p9/characteristics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp httpapi.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestHTTP_SetConfigurablePassesRawBody(t *testing.T) {
	uc := new(MockUseCase)
	r := newRouter(uc)

	uc.On("SetConfigurable", mock.Anything, mock.MatchedBy(func(in *dto.SetConfigurableInput) bool {
		return in.ProductID == "p1" && strings.HasPrefix(string(in.Characteristics), "[")
	})).Return(&model.ConfigurableCharacteristics{ProductID: "p1", Characteristics: types.JSONText(`[]`)}, nil)
	uc.On("SetConfigurable", mock.Anything, mock.MatchedBy(func(in *dto.SetConfigurableInput) bool {
		return strings.HasPrefix(string(in.Characteristics), "{")
	})).Return(nil, apperr.Validation("INVALID_CONFIGURABLE", "configurable characteristics must be a JSON array"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/p1/configurable", strings.NewReader(`[{"group_id":"g1"}]`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/products/p1/configurable", strings.NewReader(`{"group_id":"g1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
