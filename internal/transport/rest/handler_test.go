package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of the ProductService interface
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) FindAll(ctx context.Context) ([]service.ProductDto, error) {
	args := m.Called(ctx)
	return listArg(args), args.Error(1)
}

func (m *MockProductService) FindByName(ctx context.Context, name string) ([]service.ProductDto, error) {
	args := m.Called(ctx, name)
	return listArg(args), args.Error(1)
}

func (m *MockProductService) FindByStockRange(ctx context.Context, minStock, maxStock int32) ([]service.ProductDto, error) {
	args := m.Called(ctx, minStock, maxStock)
	return listArg(args), args.Error(1)
}

func (m *MockProductService) FindByID(ctx context.Context, id int32) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	return productArg(args), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, product service.ProductCreateDto) (*service.ProductDto, error) {
	args := m.Called(ctx, product)
	return productArg(args), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, product service.ProductDto) (*service.ProductDto, error) {
	args := m.Called(ctx, product)
	return productArg(args), args.Error(1)
}

func (m *MockProductService) DeleteByID(ctx context.Context, id int32) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	return productArg(args), args.Error(1)
}

func (m *MockProductService) IncreaseStock(ctx context.Context, id int32, quantity int32) (*service.ProductDto, error) {
	args := m.Called(ctx, id, quantity)
	return productArg(args), args.Error(1)
}

func (m *MockProductService) DecreaseStock(ctx context.Context, id int32, quantity int32) (*service.ProductDto, error) {
	args := m.Called(ctx, id, quantity)
	return productArg(args), args.Error(1)
}

func listArg(args mock.Arguments) []service.ProductDto {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]service.ProductDto)
}

func productArg(args mock.Arguments) *service.ProductDto {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*service.ProductDto)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v any) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

func ptr(v int32) *int32 {
	return &v
}

// serve routes the request through a router with the product routes registered.
func serve(svc service.ProductService, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewJSONHandler(io.Discard, nil))).RegisterRoutes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func assertInternalError(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body web.InternalErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, web.InternalErrorMessage, body.ErrorMessage)
}

func Test_ProductAPI_FindAll(t *testing.T) {
	products := []service.ProductDto{
		{ID: 100000, Name: "Product 1", Stock: ptr(10)},
		{ID: 100001, Name: "Product 2", Stock: ptr(20)},
	}
	testCases := []struct {
		name         string
		mockList     []service.ProductDto
		mockError    error
		expectedCode int
		expectedBody string
	}{
		{name: "Success - products found", mockList: products, expectedCode: http.StatusOK, expectedBody: toJSON(t, products)},
		{name: "Success - no products", mockList: []service.ProductDto{}, expectedCode: http.StatusOK, expectedBody: `[]`},
		{name: "Error - service error", mockError: errors.New("db down"), expectedCode: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("FindAll", mock.Anything).Return(tc.mockList, tc.mockError)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			// when
			rr := serve(svc, req)
			// then
			if tc.expectedCode == http.StatusInternalServerError {
				assertInternalError(t, rr)
				return
			}
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_ProductAPI_FindByID(t *testing.T) {
	product := &service.ProductDto{ID: 100000, Name: "Product 1", Stock: ptr(10)}
	testCases := []struct {
		name         string
		path         string
		mockProduct  *service.ProductDto
		mockError    error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product found",
			path:         "100000",
			mockProduct:  product,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, product),
		},
		{
			name:         "Error - product not found",
			path:         "100000",
			mockError:    perrors.ErrProductNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 100000 not found"}),
		},
		{
			name:         "Error - invalid id",
			path:         "abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid id: abc"}),
		},
		{
			name:         "Error - id out of range",
			path:         "99999999999",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid id: 99999999999"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("FindByID", mock.Anything, int32(100000)).Return(tc.mockProduct, tc.mockError)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+tc.path, nil)
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_ProductAPI_FindByID_InternalError(t *testing.T) {
	svc := new(MockProductService)
	svc.On("FindByID", mock.Anything, int32(100000)).Return(nil, errors.New("connection reset"))

	rr := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/products/100000", nil))

	assertInternalError(t, rr)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}

func Test_ProductAPI_Create(t *testing.T) {
	created := &service.ProductDto{ID: 100005, Name: "Widget", Stock: ptr(5)}
	testCases := []struct {
		name             string
		body             string
		mockProduct      *service.ProductDto
		mockError        error
		expectedCode     int
		expectedBody     string
		expectedLocation string
	}{
		{
			name:             "Success - product created",
			body:             `{"name":"Widget","stock":5}`,
			mockProduct:      created,
			expectedCode:     http.StatusCreated,
			expectedBody:     toJSON(t, created),
			expectedLocation: "/api/v1/products/100005",
		},
		{
			name:         "Error - malformed JSON",
			body:         `{"name":`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - missing stock",
			body:         `{"name":"Widget"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Stock": "failed on rule: required"}}),
		},
		{
			name:         "Error - missing name",
			body:         `{"stock":0}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Name": "failed on rule: required"}}),
		},
		{
			name:         "Error - name with NUL byte",
			body:         `{"name":"Wid\u0000get","stock":5}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Name": "failed on rule: pgtext"}}),
		},
		{
			name:         "Error - conflict",
			body:         `{"name":"Widget","stock":5}`,
			mockError:    perrors.ErrProductConflict,
			expectedCode: http.StatusConflict,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product already exists"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("Create", mock.Anything, service.ProductCreateDto{Name: "Widget", Stock: ptr(5)}).
				Return(tc.mockProduct, tc.mockError)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(tc.body))
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			assert.Equal(t, tc.expectedLocation, rr.Header().Get("Location"))
		})
	}
}

func Test_ProductAPI_Update(t *testing.T) {
	updated := &service.ProductDto{ID: 100001, Name: "Renamed", Stock: ptr(7)}
	testCases := []struct {
		name         string
		path         string
		body         string
		mockProduct  *service.ProductDto
		mockError    error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product updated",
			path:         "100001",
			body:         `{"id":100001,"name":"Renamed","stock":7}`,
			mockProduct:  updated,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, updated),
		},
		{
			name:         "Error - product not found",
			path:         "100001",
			body:         `{"id":100001,"name":"Renamed","stock":7}`,
			mockError:    perrors.ErrProductNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 100001 not found"}),
		},
		{
			name:         "Error - path and body id differ",
			path:         "100002",
			body:         `{"id":100001,"name":"Renamed","stock":7}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product ID in path (100002) does not match ID in body (100001)"}),
		},
		{
			name:         "Error - id below range",
			path:         "5",
			body:         `{"id":5,"name":"Renamed","stock":7}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"ID": "failed on rule: min"}}),
		},
		{
			name:         "Error - name with NUL byte",
			path:         "100001",
			body:         `{"id":100001,"name":"\u0000","stock":7}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Name": "failed on rule: pgtext"}}),
		},
		{
			name:         "Error - malformed JSON",
			path:         "100001",
			body:         `not json`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("Update", mock.Anything, service.ProductDto{ID: 100001, Name: "Renamed", Stock: ptr(7)}).
				Return(tc.mockProduct, tc.mockError)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+tc.path, strings.NewReader(tc.body))
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_ProductAPI_DeleteByID(t *testing.T) {
	t.Run("Success - product deleted", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("DeleteByID", mock.Anything, int32(100002)).Return(&service.ProductDto{ID: 100002, Name: "Gone", Stock: ptr(1)}, nil)

		rr := serve(svc, httptest.NewRequest(http.MethodDelete, "/api/v1/products/100002", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("Error - product not found", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("DeleteByID", mock.Anything, int32(100002)).Return(nil, perrors.ErrProductNotFound)

		rr := serve(svc, httptest.NewRequest(http.MethodDelete, "/api/v1/products/100002", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, toJSON(t, ErrorResponse{Error: "Product with ID 100002 not found"}), rr.Body.String())
	})
}

func Test_ProductAPI_AdjustStock(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		method       string
		quantity     int32
		mockProduct  *service.ProductDto
		mockError    error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - add to stock",
			path:         "/api/v1/products/100000/add-to-stock/5",
			method:       "IncreaseStock",
			quantity:     5,
			mockProduct:  &service.ProductDto{ID: 100000, Name: "Product 1", Stock: ptr(15)},
			expectedCode: http.StatusOK,
			expectedBody: `{"id":100000,"name":"Product 1","stock":15}`,
		},
		{
			name:         "Success - decrement below zero",
			path:         "/api/v1/products/100000/decrement-stock/20",
			method:       "DecreaseStock",
			quantity:     20,
			mockProduct:  &service.ProductDto{ID: 100000, Name: "Product 1", Stock: ptr(-10)},
			expectedCode: http.StatusOK,
			expectedBody: `{"id":100000,"name":"Product 1","stock":-10}`,
		},
		{
			name:         "Error - product not found",
			path:         "/api/v1/products/100000/decrement-stock/1",
			method:       "DecreaseStock",
			quantity:     1,
			mockError:    perrors.ErrProductNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 100000 not found"}),
		},
		{
			name:         "Error - stock overflow",
			path:         "/api/v1/products/100000/add-to-stock/2147483647",
			method:       "IncreaseStock",
			quantity:     2147483647,
			mockError:    perrors.ErrStockOutOfRange,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Stock quantity out of range"}),
		},
		{
			name:         "Error - invalid quantity",
			path:         "/api/v1/products/100000/add-to-stock/lots",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid quantity: lots"}),
		},
		{
			name:         "Error - quantity overflows int32",
			path:         "/api/v1/products/100000/decrement-stock/2147483648",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid quantity: 2147483648"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			if tc.method != "" {
				svc.On(tc.method, mock.Anything, int32(100000), tc.quantity).Return(tc.mockProduct, tc.mockError)
			}
			req := httptest.NewRequest(http.MethodPut, tc.path, nil)
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func Test_ProductAPI_Search(t *testing.T) {
	found := []service.ProductDto{{ID: 100001, Name: "Test Product", Stock: ptr(20)}}
	testCases := []struct {
		name         string
		query        string
		mockList     []service.ProductDto
		expectedCode int
		expectedBody string
	}{
		{name: "Success - products found", query: "?name=Test", mockList: found, expectedCode: http.StatusOK, expectedBody: toJSON(t, found)},
		{name: "Success - no match", query: "?name=Test", mockList: []service.ProductDto{}, expectedCode: http.StatusNoContent},
		{name: "Error - missing name", query: "", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "name url parameter is required"})},
		{name: "Error - empty name", query: "?name=", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "name url parameter is required"})},
		{name: "Error - NUL byte in name", query: "?name=%00", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "Invalid name url parameter"})},
		{name: "Error - invalid UTF-8 in name", query: "?name=%FF", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "Invalid name url parameter"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("FindByName", mock.Anything, "Test").Return(tc.mockList, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/search"+tc.query, nil)
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody == "" {
				assert.Empty(t, rr.Body.String())
				return
			}
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_ProductAPI_Search_StoreErrors(t *testing.T) {
	testCases := []struct {
		name         string
		mockError    error
		expectedCode int
	}{
		{name: "Error - name rejected by the store", mockError: fmt.Errorf("search: %w", perrors.ErrInvalidProduct), expectedCode: http.StatusBadRequest},
		{name: "Error - database unavailable", mockError: errors.New("connection refused"), expectedCode: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("FindByName", mock.Anything, "Test").Return(nil, tc.mockError)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/search?name=Test", nil)
			// when
			rr := serve(svc, req)
			// then
			if tc.expectedCode == http.StatusInternalServerError {
				assertInternalError(t, rr)
				return
			}
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, toJSON(t, ErrorResponse{Error: "Invalid name url parameter"}), rr.Body.String())
		})
	}
}

func Test_ProductAPI_FindByStockLevel(t *testing.T) {
	found := []service.ProductDto{
		{ID: 100001, Name: "B", Stock: ptr(20)},
		{ID: 100002, Name: "C", Stock: ptr(30)},
	}
	testCases := []struct {
		name         string
		query        string
		mockList     []service.ProductDto
		expectedCode int
		expectedBody string
	}{
		{name: "Success - products found", query: "?min=15&max=35", mockList: found, expectedCode: http.StatusOK, expectedBody: toJSON(t, found)},
		{name: "Success - no match", query: "?min=15&max=35", mockList: []service.ProductDto{}, expectedCode: http.StatusNoContent},
		{name: "Error - missing min", query: "?max=35", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "min url parameter is required"})},
		{name: "Error - missing max", query: "?min=15", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "max url parameter is required"})},
		{name: "Error - non-integer max", query: "?min=15&max=lots", expectedCode: http.StatusBadRequest, expectedBody: toJSON(t, ErrorResponse{Error: "Invalid max number: lots"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockProductService)
			svc.On("FindByStockRange", mock.Anything, int32(15), int32(35)).Return(tc.mockList, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/stock-level"+tc.query, nil)
			// when
			rr := serve(svc, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody == "" {
				assert.Empty(t, rr.Body.String())
				return
			}
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}
