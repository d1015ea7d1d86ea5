package filter

import (
	"strconv"
	"strings"
	"time"

	"sales-dashboard-service/internal/domain"
)

// Relative date windows accepted in FilterParams.Date.
const (
	DateLast7Days = "Last 7 Days"
	DateLastMonth = "Last Month"
)

const dateOnlyLayout = "2006-01-02"

// Compiler turns FilterParams into a predicate tree. It never fails: malformed
// or unrecognised inputs contribute no condition.
type Compiler struct {
	now func() time.Time
}

// NewCompiler creates a Compiler that resolves relative date windows against now.
// A nil now uses time.Now.
func NewCompiler(now func() time.Time) *Compiler {
	if now == nil {
		now = time.Now
	}
	return &Compiler{now: now}
}

// Compile is shorthand for NewCompiler(time.Now).Compile(params).
func Compile(params domain.FilterParams) *And {
	return NewCompiler(nil).Compile(params)
}

// Compile builds the AND of all condition groups implied by params.
// The result is MatchAll() when no recognised constraint is present.
func (c *Compiler) Compile(params domain.FilterParams) *And {
	groups := make([]Node, 0, 8)

	if search := strings.TrimSpace(params.Search); search != "" {
		groups = append(groups, &Or{Children: []Node{
			&Condition{Field: FieldCustomerName, Operator: OpContains, Value: search},
			&Condition{Field: FieldPhone, Operator: OpContains, Value: search},
		}})
	}

	lists := []struct {
		raw   string
		field Field
	}{
		{params.Region, FieldRegion},
		{params.Gender, FieldGender},
		{params.Category, FieldCategory},
		{params.Tags, FieldTags},
		{params.PaymentMethod, FieldPaymentMethod},
	}
	for _, l := range lists {
		if values := splitList(l.raw); len(values) > 0 {
			groups = append(groups, &Condition{Field: l.field, Operator: OpIn, Value: values})
		}
	}

	if ages := ageRanges(params.Age); len(ages) > 0 {
		groups = append(groups, &Or{Children: ages})
	}

	if params.StartDate != "" && params.EndDate != "" {
		// An explicit range always wins over the relative keyword, even when it fails to parse.
		if g := dateRange(params.StartDate, params.EndDate); g != nil {
			groups = append(groups, g)
		}
	} else if since, ok := c.relativeWindow(params.Date); ok {
		groups = append(groups, &Condition{Field: FieldDate, Operator: OpGte, Value: since})
	}

	return &And{Children: groups}
}

func (c *Compiler) relativeWindow(keyword string) (time.Time, bool) {
	now := c.now()
	switch keyword {
	case DateLast7Days:
		return now.AddDate(0, 0, -7), true
	case DateLastMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

// splitList splits a comma-separated list, trimming blanks and dropping empty tokens.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// ageRanges parses tokens like "18-25" and "46+". Malformed tokens are dropped.
func ageRanges(raw string) []Node {
	var nodes []Node
	for _, token := range splitList(raw) {
		if lower, ok := strings.CutSuffix(token, "+"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(lower))
			if err != nil {
				continue
			}
			nodes = append(nodes, &Condition{Field: FieldAge, Operator: OpGte, Value: n})
			continue
		}
		bounds := strings.Split(token, "-")
		if len(bounds) != 2 {
			continue
		}
		lo, errLo := strconv.Atoi(strings.TrimSpace(bounds[0]))
		hi, errHi := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if errLo != nil || errHi != nil {
			continue
		}
		nodes = append(nodes, &And{Children: []Node{
			&Condition{Field: FieldAge, Operator: OpGte, Value: lo},
			&Condition{Field: FieldAge, Operator: OpLte, Value: hi},
		}})
	}
	return nodes
}

func dateRange(start, end string) Node {
	from, ok := parseDate(start, false)
	if !ok {
		return nil
	}
	to, ok := parseDate(end, true)
	if !ok {
		return nil
	}
	return &And{Children: []Node{
		&Condition{Field: FieldDate, Operator: OpGte, Value: from},
		&Condition{Field: FieldDate, Operator: OpLte, Value: to},
	}}
}

// parseDate accepts YYYY-MM-DD (UTC) or RFC3339. A date-only upper bound is
// extended to the last instant of that day.
func parseDate(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
