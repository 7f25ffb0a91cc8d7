package orders

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo is the PostgreSQL Store.
type Repo struct{ DB *pgxpool.Pool }

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderSelect = `
	SELECT o.id, o.customer_id, c.name, c.email, o.order_date, o.total_amount,
	       o.status, o.delivery_address, o.contact_number
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (r *Repo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (r *Repo) OrderByID(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, r.DB, id, false)
}

func (r *Repo) OrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return listOrders(ctx, r.DB, orderSelect+` WHERE o.customer_id=$1 ORDER BY o.order_date DESC, o.id DESC`, customerID)
}

func (r *Repo) AllOrders(ctx context.Context) ([]Order, error) {
	return listOrders(ctx, r.DB, orderSelect+` ORDER BY o.order_date DESC, o.id DESC`)
}

func (r *Repo) OrdersByStatus(ctx context.Context, status Status) ([]Order, error) {
	return listOrders(ctx, r.DB, orderSelect+` WHERE o.status=$1 ORDER BY o.order_date DESC, o.id DESC`, string(status))
}

func (r *Repo) OrdersSince(ctx context.Context, since time.Time) ([]Order, error) {
	return listOrders(ctx, r.DB, orderSelect+` WHERE o.order_date >= $1 ORDER BY o.order_date DESC, o.id DESC`, since)
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.OrderDate,
		&o.TotalAmount, &status, &o.DeliveryAddress, &o.ContactNumber)
	o.Status = Status(status)
	return o, err
}

func getOrder(ctx context.Context, q queryer, id int64, lock bool) (Order, error) {
	sql := orderSelect + ` WHERE o.id=$1`
	if lock {
		sql += ` FOR UPDATE OF o`
	}
	o, err := scanOrder(q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	out := []Order{o}
	if err := loadItems(ctx, q, out); err != nil {
		return Order{}, err
	}
	return out[0], nil
}

func listOrders(ctx context.Context, q queryer, sql string, args ...any) ([]Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := loadItems(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadItems fills Items for every order with a single second query.
func loadItems(ctx context.Context, q queryer, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		byID[orders[i].ID] = i
		orders[i].Items = []OrderItem{}
	}

	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.unit_price, i.total_price
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return err
		}
		idx := byID[it.OrderID]
		orders[idx].Items = append(orders[idx].Items, it)
	}
	return rows.Err()
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Customer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := t.tx.QueryRow(ctx, `SELECT id, name, email FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

// LockProduct reads the product row FOR UPDATE so the stock check and the
// decrement that follows cannot interleave with another order.
func (t *pgTx) LockProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, price, quantity, is_active
		FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (t *pgTx) SetProductQuantity(ctx context.Context, id int64, quantity int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET quantity=$2, updated_at=now() WHERE id=$1`, id, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders(customer_id, total_amount, status, delivery_address, contact_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date`,
		o.CustomerID, o.TotalAmount, string(o.Status), o.DeliveryAddress, o.ContactNumber,
	).Scan(&o.ID, &o.OrderDate)
}

func (t *pgTx) InsertItem(ctx context.Context, it *OrderItem) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice,
	).Scan(&it.ID)
}

func (t *pgTx) SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET total_amount=$2 WHERE id=$1`, id, total)
	return err
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, t.tx, id, true)
}

func (t *pgTx) SetOrderStatus(ctx context.Context, id int64, status Status) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
