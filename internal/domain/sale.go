package domain

import "time"

// Sale represents one transaction line in the sales dataset.
// The json tags correspond to the fields the dashboard table renders.
type Sale struct {
	TransactionID string    `json:"transaction_id"`
	CustomerID    string    `json:"cust_id"`
	CustomerName  string    `json:"customer_name"`
	Phone         string    `json:"phone"`
	Gender        string    `json:"gender"`
	Age           int       `json:"age"`
	Region        string    `json:"region"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Tags          []string  `json:"tags"`
	Quantity      int       `json:"quantity"`
	TotalAmount   float64   `json:"total_amount"` // For currency, consider a decimal type if amounts need exact arithmetic
	Discount      float64   `json:"discount"`
	FinalAmount   float64   `json:"final_amount"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"payment_method"`
	OrderStatus   string    `json:"order_status"`
}

// Note on FinalAmount:
// final_amount is expected to equal total_amount - discount, but that is an ingestion-time
// cleaning rule. Nothing on the read path recomputes or validates it.

// FilterParams is the flat, loosely-typed set of query inputs accepted by the browse endpoint.
// Every field is optional; an empty string means "no constraint".
// Multi-value fields (Region, Gender, Category, Tags, PaymentMethod, Age) are comma-separated.
type FilterParams struct {
	Search        string
	Region        string
	Gender        string
	Age           string
	Category      string
	Tags          string
	PaymentMethod string
	Date          string
	StartDate     string
	EndDate       string
	SortBy        string
	Page          string
}

// Stats holds the aggregate sums over every record matching a filter, not only the current page.
type Stats struct {
	TotalUnits    int     `json:"total_units"`
	TotalAmount   float64 `json:"total_amount"`
	TotalDiscount float64 `json:"total_discount"`
}

// SalesPage is the result envelope of one browse query.
type SalesPage struct {
	Data        []Sale
	Total       int
	TotalPages  int
	CurrentPage int
	Stats       Stats
}

// FilterOptions lists the distinct values available for the dashboard's filter controls.
type FilterOptions struct {
	Regions        []string `json:"regions"`
	Categories     []string `json:"categories"`
	PaymentMethods []string `json:"paymentMethods"`
	Tags           []string `json:"tags"`
}
