package catalog

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-grocery-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, price, quantity, category, description, image_url,
	is_reserved, reserved_by, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category, &p.Description, &p.ImageURL,
		&p.Reserved, &p.ReservedBy, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) list(ctx context.Context, where string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, price, quantity, category, description, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at`,
		p.Name, p.Price, p.Quantity, p.Category, p.Description, p.ImageURL,
	).Scan(&p.ID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repo) Update(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, price=$3, quantity=$4, category=$5, description=$6, image_url=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		p.ID, p.Name, p.Price, p.Quantity, p.Category, p.Description, p.ImageURL,
	).Scan(&p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

func (r *Repo) exec(ctx context.Context, sql string, args ...any) error {
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE products SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
}

func (r *Repo) SetQuantity(ctx context.Context, id int64, quantity int) error {
	return r.exec(ctx, `UPDATE products SET quantity=$2, updated_at=now() WHERE id=$1`, id, quantity)
}

func (r *Repo) ByID(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *Repo) ActiveByName(ctx context.Context, name string) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE name=$1 AND is_active`, name))
}

func (r *Repo) SearchByName(ctx context.Context, fragment string) ([]Product, error) {
	return r.list(ctx, `is_active AND name ILIKE '%' || $1 || '%' ORDER BY name, id`, fragment)
}

func (r *Repo) Search(ctx context.Context, fragment string) ([]Product, error) {
	return r.list(ctx, `is_active AND (name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		ORDER BY name, id`, fragment)
}

func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `is_active ORDER BY id`)
}

func (r *Repo) ByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.list(ctx, `is_active AND category=$1 ORDER BY name, id`, category)
}

func (r *Repo) InStock(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `is_active AND quantity > 0 ORDER BY id`)
}

func (r *Repo) AtOrBelow(ctx context.Context, threshold int) ([]Product, error) {
	return r.list(ctx, `is_active AND quantity <= $1 ORDER BY quantity, id`, threshold)
}

func (r *Repo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT category FROM products
		WHERE is_active AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Reserve(ctx context.Context, id, customerID int64, quantity int) (Product, error) {
	var p Product
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		p, err = scanProduct(tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1 AND is_active FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Quantity < quantity {
			return ErrShortStock
		}
		return tx.QueryRow(ctx, `
			UPDATE products
			SET quantity = quantity - $2, is_reserved = TRUE, reserved_by = $3, updated_at = now()
			WHERE id=$1
			RETURNING quantity, is_reserved, reserved_by, updated_at`,
			id, quantity, customerID,
		).Scan(&p.Quantity, &p.Reserved, &p.ReservedBy, &p.UpdatedAt)
	})
	return p, err
}
