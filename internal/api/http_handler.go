package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sales-dashboard-service/internal/domain"
)

const serviceName = "SalesDashboardService"

// SalesQuerier is the read API served over HTTP and gRPC. *sales.Service implements it.
type SalesQuerier interface {
	Query(ctx context.Context, params domain.FilterParams) (*domain.SalesPage, error)
	ListFilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	sales  SalesQuerier
	db     Pinger
	logger *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(sales SalesQuerier, db Pinger, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{sales: sales, db: db, logger: logger}
}

// --- Helpers ---

// ErrorResponse is the only error shape the API returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SalesResponse is the JSON envelope for a page of sales.
type SalesResponse struct {
	Success     bool          `json:"success"`
	Count       int           `json:"count"`
	TotalPages  int           `json:"total_pages"`
	CurrentPage int           `json:"current_page"`
	Stats       domain.Stats  `json:"stats"`
	Data        []domain.Sale `json:"data"`
}

// FilterOptionsResponse is the JSON envelope for the filter option lists.
type FilterOptionsResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.FilterOptions `json:"data"`
}

func newSalesResponse(page *domain.SalesPage) SalesResponse {
	return SalesResponse{
		Success:     true,
		Count:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Stats:       page.Stats,
		Data:        page.Data,
	}
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Success: false, Message: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// filterParamKeys maps query string keys onto FilterParams fields.
var filterParamKeys = []struct {
	key string
	dst func(p *domain.FilterParams) *string
}{
	{"search", func(p *domain.FilterParams) *string { return &p.Search }},
	{"region", func(p *domain.FilterParams) *string { return &p.Region }},
	{"gender", func(p *domain.FilterParams) *string { return &p.Gender }},
	{"age", func(p *domain.FilterParams) *string { return &p.Age }},
	{"category", func(p *domain.FilterParams) *string { return &p.Category }},
	{"tags", func(p *domain.FilterParams) *string { return &p.Tags }},
	{"paymentMethod", func(p *domain.FilterParams) *string { return &p.PaymentMethod }},
	{"date", func(p *domain.FilterParams) *string { return &p.Date }},
	{"startDate", func(p *domain.FilterParams) *string { return &p.StartDate }},
	{"endDate", func(p *domain.FilterParams) *string { return &p.EndDate }},
	{"sortBy", func(p *domain.FilterParams) *string { return &p.SortBy }},
	{"page", func(p *domain.FilterParams) *string { return &p.Page }},
}

// filterParamsFromLookup builds FilterParams from any key lookup. Repeated
// values for one key are joined with commas, so region=North&region=South
// is the same as region=North,South.
func filterParamsFromLookup(lookup func(key string) []string) domain.FilterParams {
	var params domain.FilterParams
	for _, k := range filterParamKeys {
		if values := lookup(k.key); len(values) > 0 {
			*k.dst(&params) = strings.Join(values, ",")
		}
	}
	return params
}

// --- Sales Handlers ---

// ListSales handles GET /api/sales.
func (h *HTTPHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := filterParamsFromLookup(func(key string) []string { return query[key] })

	page, err := h.sales.Query(r.Context(), params)
	if err != nil {
		h.logger.Error("ListSales failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, newSalesResponse(page))
}

// ListFilterOptions handles GET /api/sales/options.
func (h *HTTPHandler) ListFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.sales.ListFilterOptions(r.Context())
	if err != nil {
		h.logger.Error("ListFilterOptions failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, FilterOptionsResponse{Success: true, Data: opts})
}

// Healthz reports service liveness. It always answers 200; the payload carries the database status.
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if h.db == nil {
		dbStatus = "unknown"
	} else if err := h.db.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		h.logger.Warn("Health check DB ping failed", zap.Error(err))
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"serviceName": serviceName,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"database":    dbStatus,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Healthz)                 // GET /api/healthz
		r.Get("/sales", h.ListSales)                 // GET /api/sales
		r.Get("/sales/options", h.ListFilterOptions) // GET /api/sales/options
	})
}
