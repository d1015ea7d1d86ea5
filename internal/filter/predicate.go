// Package filter compiles the dashboard's loosely-typed query parameters into a
// store-agnostic predicate tree.
//
// The tree is an AND of independent condition groups. Each group is either a single
// Condition or an Or/And of conditions. An And with no children matches every record.
// Stores translate the tree into their own query language (see store.PostgresStore);
// Match evaluates it directly against a domain.Sale for in-memory use.
package filter

// Field names a filterable attribute of a sale record. Values are the column names used by the store.
type Field string

const (
	FieldCustomerName  Field = "customer_name"
	FieldPhone         Field = "phone"
	FieldGender        Field = "gender"
	FieldAge           Field = "age"
	FieldRegion        Field = "region"
	FieldCategory      Field = "category"
	FieldTags          Field = "tags"
	FieldPaymentMethod Field = "payment_method"
	FieldDate          Field = "date"
	FieldQuantity      Field = "quantity"
	FieldTransactionID Field = "transaction_id"
)

// Operator is a leaf comparison.
type Operator string

const (
	// OpContains is a case-insensitive substring match. Value is a string.
	OpContains Operator = "contains"
	// OpIn is set membership. Value is a []string. For FieldTags it holds when
	// the record carries at least one of the listed tags.
	OpIn Operator = "in"
	// OpGte and OpLte are inclusive bounds. Value is an int (age) or time.Time (date).
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

// Node is implemented by Condition, And and Or.
type Node interface {
	node()
}

// Condition is a leaf comparison on a single field.
type Condition struct {
	Field    Field
	Operator Operator
	Value    interface{}
}

// And holds when every child holds. An empty And always holds.
type And struct {
	Children []Node
}

// Or holds when at least one child holds. An empty Or never holds; the compiler never emits one.
type Or struct {
	Children []Node
}

func (*Condition) node() {}
func (*And) node()       {}
func (*Or) node()        {}

// MatchAll returns the unconstrained predicate.
func MatchAll() *And {
	return &And{}
}

// IsMatchAll reports whether n places no constraint on the records it is applied to.
func IsMatchAll(n Node) bool {
	if n == nil {
		return true
	}
	a, ok := n.(*And)
	return ok && len(a.Children) == 0
}
