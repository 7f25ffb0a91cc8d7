package customers

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-grocery-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const customerCols = `id, name, email, address, contact_number, is_active, created_at, updated_at, password_hash`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Address, &c.ContactNumber,
		&c.Active, &c.CreatedAt, &c.UpdatedAt, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]Customer, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, c *Customer) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customers(name, email, password_hash, address, contact_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, updated_at`,
		c.Name, c.Email, c.PasswordHash, c.Address, c.ContactNumber,
	).Scan(&c.ID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repo) Update(ctx context.Context, c *Customer) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE customers SET name=$2, email=$3, address=$4, contact_number=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		c.ID, c.Name, c.Email, c.Address, c.ContactNumber,
	).Scan(&c.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

func (r *Repo) SetPassword(ctx context.Context, id int64, hash string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE customers SET password_hash=$2, updated_at=now() WHERE id=$1`, id, hash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE customers SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ByID(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE id=$1`, id))
}

func (r *Repo) ActiveByEmail(ctx context.Context, email string) (Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE email=$1 AND is_active`, email))
}

func (r *Repo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE email=$1)`, email).Scan(&ok)
	return ok, err
}

func (r *Repo) SearchByName(ctx context.Context, fragment string) ([]Customer, error) {
	return r.list(ctx, `SELECT `+customerCols+` FROM customers
		WHERE name ILIKE '%' || $1 || '%' ORDER BY name, id`, fragment)
}

func (r *Repo) ListActive(ctx context.Context) ([]Customer, error) {
	return r.list(ctx, `SELECT `+customerCols+` FROM customers WHERE is_active ORDER BY id`)
}

func (r *Repo) ActiveAdmin(ctx context.Context, login string) (AdminUser, error) {
	var a AdminUser
	err := r.DB.QueryRow(ctx, `
		SELECT id, username, email, full_name, role, is_active, password_hash
		FROM admin_users
		WHERE is_active AND (username=$1 OR email=$1)
		ORDER BY (username=$1) DESC
		LIMIT 1`, login).
		Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.Role, &a.Active, &a.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	return a, err
}

func (r *Repo) InsertAdmin(ctx context.Context, a *AdminUser) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO admin_users(username, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active`,
		a.Username, a.Email, a.PasswordHash, a.FullName, a.Role,
	).Scan(&a.ID, &a.Active)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
