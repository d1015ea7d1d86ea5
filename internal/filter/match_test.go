package filter

import (
	"testing"
	"time"

	"sales-dashboard-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func salesAged(ages ...int) []domain.Sale {
	out := make([]domain.Sale, len(ages))
	for i, age := range ages {
		out[i] = domain.Sale{TransactionID: string(rune('A' + i)), Age: age}
	}
	return out
}

func matchingAges(pred Node, sales []domain.Sale) []int {
	var ages []int
	for i := range sales {
		if Match(pred, &sales[i]) {
			ages = append(ages, sales[i].Age)
		}
	}
	return ages
}

func TestMatch_AgeUnion(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Age: "18-25,46+"})
	assert.Equal(t, []int{20, 50}, matchingAges(pred, salesAged(17, 20, 30, 50)))
}

func TestMatch_OpenEndedAge(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Age: "46+"})
	assert.Equal(t, []int{46, 1000}, matchingAges(pred, salesAged(45, 46, 1000)))
}

func TestMatch_MatchAll(t *testing.T) {
	sale := &domain.Sale{}
	assert.True(t, Match(MatchAll(), sale))
	assert.True(t, Match(nil, sale))
}

func TestMatch_SearchIsCaseInsensitiveOnNameOrPhone(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Search: "NEHA"})
	assert.True(t, Match(pred, &domain.Sale{CustomerName: "Neha Sharma"}))
	assert.False(t, Match(pred, &domain.Sale{CustomerName: "Ravi"}))

	pred = newTestCompiler().Compile(domain.FilterParams{Search: "98765"})
	assert.True(t, Match(pred, &domain.Sale{CustomerName: "Ravi", Phone: "+91 9876543210"}))
}

func TestMatch_SearchIsLiteral(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Search: "a.c"})
	assert.False(t, Match(pred, &domain.Sale{CustomerName: "abc"}))
	assert.True(t, Match(pred, &domain.Sale{CustomerName: "xa.cx"}))
}

func TestMatch_TagsOverlap(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Tags: "organic,fashion"})
	assert.True(t, Match(pred, &domain.Sale{Tags: []string{"beauty", "organic"}}))
	assert.False(t, Match(pred, &domain.Sale{Tags: []string{"beauty"}}))
	assert.False(t, Match(pred, &domain.Sale{}))
}

func TestMatch_GroupsAreConjunctive(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Region: "North", Gender: "Male"})
	assert.True(t, Match(pred, &domain.Sale{Region: "North", Gender: "Male"}))
	assert.False(t, Match(pred, &domain.Sale{Region: "North", Gender: "Female"}))
	assert.False(t, Match(pred, &domain.Sale{Region: "East", Gender: "Male"}))
}

func TestMatch_DateRangeInclusive(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	assert.True(t, Match(pred, &domain.Sale{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}))
	assert.True(t, Match(pred, &domain.Sale{Date: time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC)}))
	assert.False(t, Match(pred, &domain.Sale{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}))
	assert.False(t, Match(pred, &domain.Sale{Date: time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)}))
}

func TestMatch_Last7Days(t *testing.T) {
	pred := newTestCompiler().Compile(domain.FilterParams{Date: DateLast7Days})
	assert.True(t, Match(pred, &domain.Sale{Date: fixedNow.AddDate(0, 0, -2)}))
	assert.False(t, Match(pred, &domain.Sale{Date: fixedNow.AddDate(0, 0, -8)}))
}

func TestMatch_MistypedConditionNeverHolds(t *testing.T) {
	sale := &domain.Sale{Age: 30}
	assert.False(t, Match(&Condition{Field: FieldAge, Operator: OpGte, Value: "30"}, sale))
	assert.False(t, Match(&Or{}, sale))
}
