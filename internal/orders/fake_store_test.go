package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store. InTx snapshots every map and puts the
// snapshot back when the callback fails, like a rolled back transaction.
type memStore struct {
	mu        sync.Mutex
	customers map[int64]Customer
	products  map[int64]Product
	orders    map[int64]Order
	nextOrder int64
	nextItem  int64
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[int64]Customer{},
		products:  map[int64]Product{},
		orders:    map[int64]Order{},
		clock:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) addCustomer(id int64, name string) {
	s.customers[id] = Customer{ID: id, Name: name, Email: name + "@example.com"}
}

func (s *memStore) addProduct(id int64, name, price string, qty int) {
	s.products[id] = Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Quantity: qty, Active: true}
}

func (s *memStore) quantity(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

func copyOrder(o Order) Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[int64]Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	orders := make(map[int64]Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = copyOrder(v)
	}
	nextOrder, nextItem := s.nextOrder, s.nextItem

	if err := fn(&memTx{s: s}); err != nil {
		s.products, s.orders = products, orders
		s.nextOrder, s.nextItem = nextOrder, nextItem
		return err
	}
	return nil
}

func (s *memStore) CustomerExists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.customers[id]
	return ok, nil
}

func (s *memStore) OrderByID(ctx context.Context, id int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *memStore) filter(keep func(Order) bool) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memStore) OrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return s.filter(func(o Order) bool { return o.CustomerID == customerID }), nil
}

func (s *memStore) AllOrders(ctx context.Context) ([]Order, error) {
	return s.filter(func(Order) bool { return true }), nil
}

func (s *memStore) OrdersByStatus(ctx context.Context, status Status) ([]Order, error) {
	return s.filter(func(o Order) bool { return o.Status == status }), nil
}

func (s *memStore) OrdersSince(ctx context.Context, since time.Time) ([]Order, error) {
	return s.filter(func(o Order) bool { return !o.OrderDate.Before(since) }), nil
}

// memTx runs with memStore.mu already held.
type memTx struct{ s *memStore }

func (t *memTx) Customer(ctx context.Context, id int64) (Customer, error) {
	c, ok := t.s.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (t *memTx) LockProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (t *memTx) SetProductQuantity(ctx context.Context, id int64, quantity int) error {
	p, ok := t.s.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Quantity = quantity
	t.s.products[id] = p
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *Order) error {
	t.s.nextOrder++
	o.ID = t.s.nextOrder
	o.OrderDate = t.s.clock
	t.s.clock = t.s.clock.Add(time.Minute)
	t.s.orders[o.ID] = copyOrder(*o)
	return nil
}

func (t *memTx) InsertItem(ctx context.Context, it *OrderItem) error {
	o, ok := t.s.orders[it.OrderID]
	if !ok {
		return ErrNotFound
	}
	t.s.nextItem++
	it.ID = t.s.nextItem
	o.Items = append(o.Items, *it)
	t.s.orders[o.ID] = o
	return nil
}

func (t *memTx) SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	o, ok := t.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.TotalAmount = total
	t.s.orders[id] = o
	return nil
}

func (t *memTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return copyOrder(o), nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, id int64, status Status) error {
	o, ok := t.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	t.s.orders[id] = o
	return nil
}

type recordedEvent struct {
	Type  string
	Order Order
	From  Status
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) add(e recordedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) OrderPlaced(ctx context.Context, o Order) {
	p.add(recordedEvent{Type: EventOrderPlaced, Order: o})
}

func (p *recordingPublisher) OrderCancelled(ctx context.Context, o Order) {
	p.add(recordedEvent{Type: EventOrderCancelled, Order: o})
}

func (p *recordingPublisher) OrderStatusChanged(ctx context.Context, o Order, from Status) {
	p.add(recordedEvent{Type: EventOrderStatusChanged, Order: o, From: from})
}
