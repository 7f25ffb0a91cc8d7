package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id             BIGSERIAL PRIMARY KEY,
		name           VARCHAR(100) NOT NULL,
		email          VARCHAR(100) NOT NULL UNIQUE,
		password_hash  TEXT NOT NULL,
		address        TEXT NOT NULL,
		contact_number VARCHAR(10) NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(50) NOT NULL UNIQUE,
		email         VARCHAR(100) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name     VARCHAR(100) NOT NULL DEFAULT '',
		role          VARCHAR(20) NOT NULL DEFAULT 'ADMIN',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL,
		price       NUMERIC(10,2) NOT NULL CHECK (price > 0),
		quantity    INTEGER NOT NULL CHECK (quantity >= 0),
		category    VARCHAR(50) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT '',
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		is_reserved BOOLEAN NOT NULL DEFAULT FALSE,
		reserved_by BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_products_active_name ON products(name) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGSERIAL PRIMARY KEY,
		customer_id      BIGINT NOT NULL REFERENCES customers(id),
		order_date       TIMESTAMPTZ NOT NULL DEFAULT now(),
		total_amount     NUMERIC(10,2) NOT NULL,
		status           VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		delivery_address TEXT NOT NULL,
		contact_number   VARCHAR(10) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          BIGSERIAL PRIMARY KEY,
		order_id    BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id  BIGINT NOT NULL REFERENCES products(id),
		quantity    INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price  NUMERIC(10,2) NOT NULL,
		total_price NUMERIC(10,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, q := range schema {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
