package store

import (
	"context"

	"sales-dashboard-service/internal/domain"
	"sales-dashboard-service/internal/filter"
)

// SortKey orders results by one field.
type SortKey struct {
	Field      filter.Field
	Descending bool
}

// SaleStorer defines the read operations the sales query service needs.
// Every operation is scoped by the same predicate tree produced by filter.Compiler.
type SaleStorer interface {
	FindSales(ctx context.Context, pred filter.Node, sort []SortKey, skip, limit int) ([]domain.Sale, error)
	CountSales(ctx context.Context, pred filter.Node) (int, error)
	// SumSales returns the sums over all matching records. found is false when nothing matched.
	SumSales(ctx context.Context, pred filter.Node) (stats domain.Stats, found bool, err error)
}

// OptionStorer lists the distinct values of a field across the whole record set.
type OptionStorer interface {
	DistinctValues(ctx context.Context, field filter.Field) ([]string, error)
}
