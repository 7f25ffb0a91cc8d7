package catalog

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrShortStock = errors.New("insufficient stock")
)

// Store lists only active products unless a method says otherwise.
type Store interface {
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetQuantity(ctx context.Context, id int64, quantity int) error
	// ByID finds active and inactive products alike.
	ByID(ctx context.Context, id int64) (Product, error)
	ActiveByName(ctx context.Context, name string) (Product, error)
	SearchByName(ctx context.Context, fragment string) ([]Product, error)
	// Search matches fragment against name or category.
	Search(ctx context.Context, fragment string) ([]Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	ByCategory(ctx context.Context, category string) ([]Product, error)
	InStock(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	AtOrBelow(ctx context.Context, threshold int) ([]Product, error)

	// Reserve takes quantity out of stock for customerID under a row lock.
	// On ErrShortStock the returned product carries the current quantity.
	Reserve(ctx context.Context, id, customerID int64, quantity int) (Product, error)
}
