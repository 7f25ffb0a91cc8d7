package customers

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type Store interface {
	// Insert assigns c.ID and the timestamps.
	Insert(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	SetPassword(ctx context.Context, id int64, hash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	ByID(ctx context.Context, id int64) (Customer, error)
	ActiveByEmail(ctx context.Context, email string) (Customer, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	// SearchByName matches fragment case-insensitively anywhere in the name.
	SearchByName(ctx context.Context, fragment string) ([]Customer, error)
	ListActive(ctx context.Context) ([]Customer, error)

	ActiveAdmin(ctx context.Context, login string) (AdminUser, error)
	InsertAdmin(ctx context.Context, a *AdminUser) error
}
