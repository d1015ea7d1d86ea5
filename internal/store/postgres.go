package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"sales-dashboard-service/internal/domain"
	"sales-dashboard-service/internal/filter"
)

// Predefined errors for store operations
var (
	ErrUnsupportedField    = errors.New("store: unsupported field")
	ErrUnsupportedOperator = errors.New("store: unsupported operator")
	ErrInvalidValue        = errors.New("store: invalid condition value")
)

//go:embed schema.sql
var schemaSQL string

const salesTable = "sales.transactions"

const saleColumns = `transaction_id, cust_id, customer_name, phone, gender, age, region,
		product_id, product_name, category, brand, tags, quantity,
		total_amount, discount, final_amount, date, payment_method, order_status`

// columns whitelists the predicate fields that may appear in generated SQL.
var columns = map[filter.Field]string{
	filter.FieldCustomerName:  "customer_name",
	filter.FieldPhone:         "phone",
	filter.FieldGender:        "gender",
	filter.FieldAge:           "age",
	filter.FieldRegion:        "region",
	filter.FieldCategory:      "category",
	filter.FieldTags:          "tags",
	filter.FieldPaymentMethod: "payment_method",
	filter.FieldDate:          "date",
	filter.FieldQuantity:      "quantity",
	filter.FieldTransactionID: "transaction_id",
}

// PostgresStore implements the SaleStorer and OptionStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the sales schema, table and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: Migrate failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- SaleStorer Implementation ---

func (s *PostgresStore) FindSales(ctx context.Context, pred filter.Node, sortKeys []SortKey, skip, limit int) ([]domain.Sale, error) {
	w := &whereBuilder{}
	whereCondition, err := w.clause(pred)
	if err != nil {
		return nil, fmt.Errorf("store: FindSales failed to build filter: %w", err)
	}
	orderBy, err := orderClause(sortKeys)
	if err != nil {
		return nil, fmt.Errorf("store: FindSales failed to build sort: %w", err)
	}

	argID := len(w.args) + 1
	dataQuery := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		saleColumns, salesTable, whereCondition, orderBy, argID, argID+1)
	queryArgs := append(w.args, limit, skip)

	rows, err := s.db.QueryContext(ctx, dataQuery, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: FindSales failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.TransactionID, &sale.CustomerID, &sale.CustomerName, &sale.Phone, &sale.Gender, &sale.Age, &sale.Region,
			&sale.ProductID, &sale.ProductName, &sale.Category, &sale.Brand, pq.Array(&sale.Tags), &sale.Quantity,
			&sale.TotalAmount, &sale.Discount, &sale.FinalAmount, &sale.Date, &sale.PaymentMethod, &sale.OrderStatus,
		); err != nil {
			return nil, fmt.Errorf("store: FindSales failed to scan sale row: %w", err)
		}
		if sale.Tags == nil {
			sale.Tags = []string{}
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: FindSales iteration error: %w", err)
	}
	return sales, nil
}

func (s *PostgresStore) CountSales(ctx context.Context, pred filter.Node) (int, error) {
	w := &whereBuilder{}
	whereCondition, err := w.clause(pred)
	if err != nil {
		return 0, fmt.Errorf("store: CountSales failed to build filter: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM " + salesTable + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, w.args...).Scan(&totalCount); err != nil {
		return 0, fmt.Errorf("store: CountSales failed to count sales: %w", err)
	}
	return totalCount, nil
}

func (s *PostgresStore) SumSales(ctx context.Context, pred filter.Node) (domain.Stats, bool, error) {
	w := &whereBuilder{}
	whereCondition, err := w.clause(pred)
	if err != nil {
		return domain.Stats{}, false, fmt.Errorf("store: SumSales failed to build filter: %w", err)
	}

	sumQuery := `SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0), COALESCE(SUM(discount), 0)
		FROM ` + salesTable + whereCondition
	var (
		matched int
		stats   domain.Stats
	)
	if err := s.db.QueryRowContext(ctx, sumQuery, w.args...).Scan(
		&matched, &stats.TotalUnits, &stats.TotalAmount, &stats.TotalDiscount,
	); err != nil {
		return domain.Stats{}, false, fmt.Errorf("store: SumSales failed to aggregate sales: %w", err)
	}
	if matched == 0 {
		return domain.Stats{}, false, nil
	}
	return stats, true, nil
}

// --- OptionStorer Implementation ---

// DistinctValues returns the non-empty distinct values of field. Array fields (tags) are flattened.
func (s *PostgresStore) DistinctValues(ctx context.Context, field filter.Field) ([]string, error) {
	column, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedField, field)
	}

	query := fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s <> '' ORDER BY %[1]s", column, salesTable)
	if field == filter.FieldTags {
		query = "SELECT DISTINCT tag FROM " + salesTable + ", unnest(tags) AS tag WHERE tag <> '' ORDER BY tag"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: DistinctValues failed to query %s: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: DistinctValues failed to scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: DistinctValues iteration error: %w", err)
	}
	return values, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		s.logger.Info("Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection pool", zap.Error(err))
			return err
		}
		s.logger.Info("Database connection pool closed successfully.")
	}
	return nil
}

// whereBuilder translates a predicate tree into a SQL boolean expression with
// positional ($n) placeholders, collecting the arguments as it goes.
type whereBuilder struct {
	args []interface{}
}

// clause returns " WHERE <expr>" or "" for an unconstrained predicate.
func (w *whereBuilder) clause(pred filter.Node) (string, error) {
	if filter.IsMatchAll(pred) {
		return "", nil
	}
	expr, err := w.expr(pred)
	if err != nil {
		return "", err
	}
	return " WHERE " + expr, nil
}

func (w *whereBuilder) expr(n filter.Node) (string, error) {
	switch v := n.(type) {
	case *filter.And:
		return w.join(v.Children, " AND ", "TRUE")
	case *filter.Or:
		return w.join(v.Children, " OR ", "FALSE")
	case *filter.Condition:
		return w.condition(v)
	default:
		return "", fmt.Errorf("store: unsupported predicate node %T", n)
	}
}

func (w *whereBuilder) join(children []filter.Node, sep, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		part, err := w.expr(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (w *whereBuilder) condition(c *filter.Condition) (string, error) {
	column, ok := columns[c.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedField, c.Field)
	}

	switch c.Operator {
	case filter.OpContains:
		needle, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s expects a string", ErrInvalidValue, c.Operator)
		}
		return fmt.Sprintf("%s ILIKE %s", column, w.arg("%"+escapeLike(needle)+"%")), nil
	case filter.OpIn:
		values, ok := c.Value.([]string)
		if !ok {
			return "", fmt.Errorf("%w: %s expects a string list", ErrInvalidValue, c.Operator)
		}
		if c.Field == filter.FieldTags {
			return fmt.Sprintf("%s && %s::text[]", column, w.arg(pq.Array(values))), nil
		}
		return fmt.Sprintf("%s = ANY(%s)", column, w.arg(pq.Array(values))), nil
	case filter.OpGte:
		return fmt.Sprintf("%s >= %s", column, w.arg(c.Value)), nil
	case filter.OpLte:
		return fmt.Sprintf("%s <= %s", column, w.arg(c.Value)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, c.Operator)
	}
}

func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func orderClause(keys []SortKey) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		column, ok := columns[k.Field]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedField, k.Field)
		}
		order := "ASC"
		if k.Descending {
			order = "DESC"
		}
		parts = append(parts, column+" "+order)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
