package filter

import (
	"slices"
	"strings"
	"time"

	"sales-dashboard-service/internal/domain"
)

// Match reports whether sale satisfies n. A nil node matches everything.
func Match(n Node, sale *domain.Sale) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *And:
		for _, child := range v.Children {
			if !Match(child, sale) {
				return false
			}
		}
		return true
	case *Or:
		for _, child := range v.Children {
			if Match(child, sale) {
				return true
			}
		}
		return false
	case *Condition:
		return v.matches(sale)
	default:
		return false
	}
}

func (c *Condition) matches(sale *domain.Sale) bool {
	switch c.Operator {
	case OpContains:
		needle, _ := c.Value.(string)
		hay, ok := stringField(sale, c.Field)
		return ok && strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
	case OpIn:
		allowed, _ := c.Value.([]string)
		if c.Field == FieldTags {
			for _, tag := range sale.Tags {
				if slices.Contains(allowed, tag) {
					return true
				}
			}
			return false
		}
		v, ok := stringField(sale, c.Field)
		return ok && slices.Contains(allowed, v)
	case OpGte, OpLte:
		cmp, ok := compareField(sale, c.Field, c.Value)
		if !ok {
			return false
		}
		if c.Operator == OpGte {
			return cmp >= 0
		}
		return cmp <= 0
	}
	return false
}

func stringField(sale *domain.Sale, f Field) (string, bool) {
	switch f {
	case FieldCustomerName:
		return sale.CustomerName, true
	case FieldPhone:
		return sale.Phone, true
	case FieldGender:
		return sale.Gender, true
	case FieldRegion:
		return sale.Region, true
	case FieldCategory:
		return sale.Category, true
	case FieldPaymentMethod:
		return sale.PaymentMethod, true
	case FieldTransactionID:
		return sale.TransactionID, true
	}
	return "", false
}

// compareField returns -1, 0 or 1 comparing the record's field value to bound.
func compareField(sale *domain.Sale, f Field, bound interface{}) (int, bool) {
	switch f {
	case FieldAge, FieldQuantity:
		n, ok := bound.(int)
		if !ok {
			return 0, false
		}
		v := sale.Age
		if f == FieldQuantity {
			v = sale.Quantity
		}
		switch {
		case v < n:
			return -1, true
		case v > n:
			return 1, true
		}
		return 0, true
	case FieldDate:
		t, ok := bound.(time.Time)
		if !ok {
			return 0, false
		}
		return sale.Date.Compare(t), true
	}
	return 0, false
}
