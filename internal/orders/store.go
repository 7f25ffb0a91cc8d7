package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Store and Tx lookups that match no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence the workflow runs against. Mutations happen only
// through InTx: everything fn does through tx commits together, or nothing
// does when fn returns an error.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CustomerExists(ctx context.Context, id int64) (bool, error)
	OrderByID(ctx context.Context, id int64) (Order, error)
	// The list queries return newest first with items loaded.
	OrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	AllOrders(ctx context.Context) ([]Order, error)
	OrdersByStatus(ctx context.Context, status Status) ([]Order, error)
	OrdersSince(ctx context.Context, since time.Time) ([]Order, error)
}

// Tx is the unit of work handed to InTx callbacks. Lock* methods hold the
// row until the transaction ends.
type Tx interface {
	Customer(ctx context.Context, id int64) (Customer, error)
	LockProduct(ctx context.Context, id int64) (Product, error)
	SetProductQuantity(ctx context.Context, id int64, quantity int) error

	// InsertOrder assigns o.ID and o.OrderDate.
	InsertOrder(ctx context.Context, o *Order) error
	// InsertItem assigns it.ID.
	InsertItem(ctx context.Context, it *OrderItem) error
	SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error
	LockOrder(ctx context.Context, id int64) (Order, error)
	SetOrderStatus(ctx context.Context, id int64, status Status) error
}
