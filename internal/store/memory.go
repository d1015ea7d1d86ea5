package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"sales-dashboard-service/internal/domain"
	"sales-dashboard-service/internal/filter"
)

// MemoryStore is a read-only SaleStorer and OptionStorer over an in-process slice.
// It evaluates predicates with filter.Match and is used for tests and local runs.
type MemoryStore struct {
	sales []domain.Sale
}

// NewMemoryStore copies sales into a new MemoryStore.
func NewMemoryStore(sales []domain.Sale) *MemoryStore {
	return &MemoryStore{sales: slices.Clone(sales)}
}

func (m *MemoryStore) matching(pred filter.Node) []domain.Sale {
	out := make([]domain.Sale, 0)
	for i := range m.sales {
		if filter.Match(pred, &m.sales[i]) {
			out = append(out, m.sales[i])
		}
	}
	return out
}

func (m *MemoryStore) FindSales(ctx context.Context, pred filter.Node, sortKeys []SortKey, skip, limit int) ([]domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, k := range sortKeys {
		if _, ok := columns[k.Field]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedField, k.Field)
		}
	}

	found := m.matching(pred)
	sort.SliceStable(found, func(i, j int) bool {
		for _, k := range sortKeys {
			c := compareSales(&found[i], &found[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if skip >= len(found) {
		return []domain.Sale{}, nil
	}
	found = found[skip:]
	if limit >= 0 && limit < len(found) {
		found = found[:limit]
	}
	return found, nil
}

func (m *MemoryStore) CountSales(ctx context.Context, pred filter.Node) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(m.matching(pred)), nil
}

func (m *MemoryStore) SumSales(ctx context.Context, pred filter.Node) (domain.Stats, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stats{}, false, err
	}
	found := m.matching(pred)
	if len(found) == 0 {
		return domain.Stats{}, false, nil
	}
	var stats domain.Stats
	for _, s := range found {
		stats.TotalUnits += s.Quantity
		stats.TotalAmount += s.TotalAmount
		stats.TotalDiscount += s.Discount
	}
	return stats, true, nil
}

func (m *MemoryStore) DistinctValues(ctx context.Context, field filter.Field) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var extract func(s *domain.Sale) []string
	switch field {
	case filter.FieldRegion:
		extract = func(s *domain.Sale) []string { return []string{s.Region} }
	case filter.FieldCategory:
		extract = func(s *domain.Sale) []string { return []string{s.Category} }
	case filter.FieldPaymentMethod:
		extract = func(s *domain.Sale) []string { return []string{s.PaymentMethod} }
	case filter.FieldGender:
		extract = func(s *domain.Sale) []string { return []string{s.Gender} }
	case filter.FieldTags:
		extract = func(s *domain.Sale) []string { return s.Tags }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedField, field)
	}

	seen := make(map[string]struct{})
	for i := range m.sales {
		for _, v := range extract(&m.sales[i]) {
			if v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func compareSales(a, b *domain.Sale, field filter.Field) int {
	switch field {
	case filter.FieldCustomerName:
		return strings.Compare(a.CustomerName, b.CustomerName)
	case filter.FieldTransactionID:
		return strings.Compare(a.TransactionID, b.TransactionID)
	case filter.FieldQuantity:
		return a.Quantity - b.Quantity
	case filter.FieldAge:
		return a.Age - b.Age
	case filter.FieldDate:
		return a.Date.Compare(b.Date)
	}
	return 0
}
