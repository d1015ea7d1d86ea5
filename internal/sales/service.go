// Package sales implements the browse query behind the dashboard: it compiles the
// request filters, fans out the page, count and aggregate reads, and assembles the
// paginated envelope with summary statistics.
package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sales-dashboard-service/internal/domain"
	"sales-dashboard-service/internal/filter"
	"sales-dashboard-service/internal/metrics"
	"sales-dashboard-service/internal/store"
)

// PageSize is the fixed number of records per page.
const PageSize = 10

// Sort keys accepted in FilterParams.SortBy. Anything else falls back to SortDateDesc.
const (
	SortNameAsc      = "name_asc"
	SortQuantityDesc = "quantity_desc"
	SortDateDesc     = "date_desc"
)

const maxPage = math.MaxInt32

// ErrQueryFailed wraps every store failure surfaced by the Service.
var ErrQueryFailed = errors.New("sales: query failed")

// Service provides the read-only sales browse operations on top of a store.
type Service struct {
	sales    store.SaleStorer
	options  store.OptionStorer
	compiler *filter.Compiler
	logger   *zap.Logger
}

// NewService creates a new Service. A nil compiler resolves relative dates against
// the wall clock; a nil logger discards output.
func NewService(sales store.SaleStorer, options store.OptionStorer, compiler *filter.Compiler, logger *zap.Logger) *Service {
	if compiler == nil {
		compiler = filter.NewCompiler(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sales:    sales,
		options:  options,
		compiler: compiler,
		logger:   logger,
	}
}

// ResolveSort maps a sortBy value to store sort keys. Every order ends with
// transaction_id ascending so that pages never overlap.
func ResolveSort(sortBy string) []store.SortKey {
	tiebreak := store.SortKey{Field: filter.FieldTransactionID}
	switch sortBy {
	case SortNameAsc:
		return []store.SortKey{{Field: filter.FieldCustomerName}, tiebreak}
	case SortQuantityDesc:
		return []store.SortKey{{Field: filter.FieldQuantity, Descending: true}, tiebreak}
	default:
		return []store.SortKey{{Field: filter.FieldDate, Descending: true}, tiebreak}
	}
}

// ResolvePage parses the requested page. Absent, non-numeric, zero or negative
// values become 1.
func ResolvePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

// TotalPages returns ceil(total / PageSize).
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Query runs the paged fetch, the count and the aggregate concurrently under one
// predicate. If any of them fails the whole query fails.
func (s *Service) Query(ctx context.Context, params domain.FilterParams) (*domain.SalesPage, error) {
	start := time.Now()
	pred := s.compiler.Compile(params)
	sortKeys := ResolveSort(params.SortBy)
	page := ResolvePage(params.Page)
	skip := (page - 1) * PageSize

	var (
		records []domain.Sale
		total   int
		stats   domain.Stats
		found   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.sales.FindSales(gctx, pred, sortKeys, skip, PageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.sales.CountSales(gctx, pred)
		return err
	})
	g.Go(func() error {
		var err error
		stats, found, err = s.sales.SumSales(gctx, pred)
		return err
	})
	if err := g.Wait(); err != nil {
		s.observe("query", start, err)
		s.logger.Error("Sales query failed", zap.Int("page", page), zap.String("sort_by", params.SortBy), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	s.observe("query", start, nil)
	metrics.SalesQueryMatches.Observe(float64(total))

	if !found {
		stats = domain.Stats{}
	}
	if records == nil {
		records = []domain.Sale{}
	}

	s.logger.Debug("Sales query completed",
		zap.Int("page", page),
		zap.Int("total", total),
		zap.Int("conditions", len(pred.Children)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &domain.SalesPage{
		Data:        records,
		Total:       total,
		TotalPages:  TotalPages(total),
		CurrentPage: page,
		Stats:       stats,
	}, nil
}

// ListFilterOptions returns the sorted distinct regions, categories, payment methods
// and tags across the whole record set. It ignores any filter state.
func (s *Service) ListFilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	start := time.Now()
	var opts domain.FilterOptions
	targets := []struct {
		field filter.Field
		dst   *[]string
	}{
		{filter.FieldRegion, &opts.Regions},
		{filter.FieldCategory, &opts.Categories},
		{filter.FieldPaymentMethod, &opts.PaymentMethods},
		{filter.FieldTags, &opts.Tags},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			values, err := s.options.DistinctValues(gctx, target.field)
			if err != nil {
				return err
			}
			*target.dst = sortedUnique(values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.observe("filter_options", start, err)
		s.logger.Error("Listing filter options failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	s.observe("filter_options", start, nil)
	return &opts, nil
}

func (s *Service) observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.SalesQueriesTotal.WithLabelValues(operation, outcome).Inc()
	metrics.SalesQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
