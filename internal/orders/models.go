package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the order aggregate as returned to callers, items included.
type Order struct {
	ID              int64           `json:"order_id"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"order_status"`
	DeliveryAddress string          `json:"delivery_address"`
	ContactNumber   string          `json:"contact_number"`
	Items           []OrderItem     `json:"order_items"`
}

// OrderItem is one line of an order. UnitPrice is the product price at the
// time the order was placed.
type OrderItem struct {
	ID          int64           `json:"order_item_id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Customer is the part of a customer account the workflow reads.
type Customer struct {
	ID    int64
	Name  string
	Email string
}

// Product is the part of a catalog row the workflow reads and adjusts.
type Product struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Quantity int
	Active   bool
}

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrder is a createOrder request. DeclaredTotal is only used when Items
// is empty; otherwise the total is computed from catalog prices.
type PlaceOrder struct {
	CustomerID      int64            `json:"customer_id"`
	DeliveryAddress string           `json:"delivery_address"`
	ContactNumber   string           `json:"contact_number"`
	Items           []ItemInput      `json:"order_items"`
	DeclaredTotal   *decimal.Decimal `json:"total_amount,omitempty"`
}
