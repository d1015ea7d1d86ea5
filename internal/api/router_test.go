package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales-dashboard-service/internal/domain"
)

func TestNewRouter_MiddlewareAndMetrics(t *testing.T) {
	mockSales := new(MockSalesQuerier)
	mockSales.On("Query", mock.Anything, mock.Anything).Return(&domain.SalesPage{Data: []domain.Sale{}}, nil)

	logger := zaptest.NewLogger(t)
	router := NewRouter(NewHTTPHandler(mockSales, stubPinger{}, logger), RouterOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
	}, logger)
	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(raw), `sales_http_requests_total{method="GET",route="/api/sales",status="200"}`)
}

func TestNewRouter_DisallowedOrigin(t *testing.T) {
	logger := zaptest.NewLogger(t)
	router := NewRouter(NewHTTPHandler(new(MockSalesQuerier), stubPinger{}, logger), RouterOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	logger := zaptest.NewLogger(t)
	router := NewRouter(NewHTTPHandler(new(MockSalesQuerier), nil, logger), RouterOptions{}, logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
