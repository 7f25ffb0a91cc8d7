package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultRecentDays = 30

// EventPublisher is told about committed changes. Implementations must not
// block; a failed publish never affects the workflow result.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o Order)
	OrderCancelled(ctx context.Context, o Order)
	OrderStatusChanged(ctx context.Context, o Order, from Status)
}

// Service is the order workflow. It performs no authorization: callers are
// expected to have checked role and ownership.
type Service struct {
	Store      Store
	Events     EventPublisher // optional
	Log        *logrus.Logger
	RecentDays int
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// notFound turns a Store miss into a NotFound error with msg.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

func (req PlaceOrder) fields() validation.OrderFields {
	lines := make([]validation.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, validation.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return validation.OrderFields{
		DeliveryAddress: req.DeliveryAddress,
		ContactNumber:   req.ContactNumber,
		Items:           lines,
		DeclaredTotal:   req.DeclaredTotal,
	}
}

// CreateOrder places an order in PENDING status. With items, each product is
// locked, checked for stock, priced and decremented, and the order total is
// the sum of the line totals regardless of what the client declared. Any
// failure rolls back every decrement made for this order.
func (s *Service) CreateOrder(ctx context.Context, req PlaceOrder) (Order, error) {
	if err := validation.Order(req.fields()); err != nil {
		return Order{}, err
	}
	s.log().WithFields(logrus.Fields{
		"customer_id": req.CustomerID,
		"items_count": len(req.Items),
	}).Info("creating order")

	var order Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := tx.Customer(ctx, req.CustomerID)
		if err != nil {
			return notFound(err, "Customer not found with ID: %d", req.CustomerID)
		}

		order = Order{
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			CustomerEmail:   c.Email,
			Status:          StatusPending,
			DeliveryAddress: req.DeliveryAddress,
			ContactNumber:   req.ContactNumber,
			Items:           []OrderItem{},
		}
		if req.DeclaredTotal != nil && len(req.Items) == 0 {
			order.TotalAmount = *req.DeclaredTotal
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(req.Items) == 0 {
			return nil
		}

		total := decimal.Zero
		for _, in := range req.Items {
			p, err := tx.LockProduct(ctx, in.ProductID)
			if err != nil {
				return notFound(err, "Product not found with ID: %d", in.ProductID)
			}
			if !p.Active {
				return apperr.NotFound("Product not found with ID: %d", in.ProductID)
			}
			if p.Quantity < in.Quantity {
				return apperr.InsufficientStock(apperr.StockShortage{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.Quantity,
					Requested:   in.Quantity,
				})
			}

			item := OrderItem{
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    in.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
			}
			if err := tx.SetProductQuantity(ctx, p.ID, p.Quantity-in.Quantity); err != nil {
				return fmt.Errorf("decrement product %d: %w", p.ID, err)
			}
			if err := tx.InsertItem(ctx, &item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, item)
			total = total.Add(item.TotalPrice)
		}

		order.TotalAmount = total
		return tx.SetOrderTotal(ctx, order.ID, total)
	})
	if err != nil {
		return Order{}, err
	}

	s.log().WithFields(logrus.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"total_amount": order.TotalAmount.StringFixed(2),
	}).Info("order created")
	if s.Events != nil {
		s.Events.OrderPlaced(ctx, order)
	}
	return order, nil
}

// CancelOrder returns every line's quantity to stock and marks the order
// CANCELLED in one transaction. Delivered or already cancelled orders fail
// with InvalidState.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (Order, error) {
	s.log().WithField("order_id", orderID).Info("cancelling order")

	var order Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "Order not found with ID: %d", orderID)
		}
		if !o.Status.Cancellable() {
			return apperr.InvalidState("Order cannot be cancelled. Current status: %s", o.Status)
		}

		for _, it := range o.Items {
			p, err := tx.LockProduct(ctx, it.ProductID)
			if err != nil {
				return notFound(err, "Product not found with ID: %d", it.ProductID)
			}
			if err := tx.SetProductQuantity(ctx, p.ID, p.Quantity+it.Quantity); err != nil {
				return fmt.Errorf("restore product %d: %w", p.ID, err)
			}
		}

		if err := tx.SetOrderStatus(ctx, o.ID, StatusCancelled); err != nil {
			return fmt.Errorf("set order status: %w", err)
		}
		o.Status = StatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.log().WithField("order_id", orderID).Info("order cancelled")
	if s.Events != nil {
		s.Events.OrderCancelled(ctx, order)
	}
	return order, nil
}

// UpdateOrderStatus overwrites the status. No transition table applies and
// stock is not touched.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, apperr.Validation("Invalid order status: %s", status)
	}
	s.log().WithFields(logrus.Fields{"order_id": orderID, "status": status}).Info("updating order status")

	var (
		order Order
		from  Status
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "Order not found with ID: %d", orderID)
		}
		if err := tx.SetOrderStatus(ctx, o.ID, status); err != nil {
			return fmt.Errorf("set order status: %w", err)
		}
		from = o.Status
		o.Status = status
		order = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.log().WithField("order_id", orderID).Info("order status updated")
	if s.Events != nil {
		s.Events.OrderStatusChanged(ctx, order, from)
	}
	return order, nil
}

func (s *Service) GetOrderByID(ctx context.Context, orderID int64) (Order, error) {
	o, err := s.Store.OrderByID(ctx, orderID)
	if err != nil {
		return Order{}, notFound(err, "Order not found with ID: %d", orderID)
	}
	return o, nil
}

func (s *Service) GetCustomerOrderDetails(ctx context.Context, customerID int64) ([]Order, error) {
	s.log().WithField("customer_id", customerID).Info("fetching customer orders")

	ok, err := s.Store.CustomerExists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Customer not found with ID: %d", customerID)
	}
	return s.Store.OrdersByCustomer(ctx, customerID)
}

func (s *Service) GetAllOrders(ctx context.Context) ([]Order, error) {
	return s.Store.AllOrders(ctx)
}

func (s *Service) GetOrdersByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid order status: %s", status)
	}
	return s.Store.OrdersByStatus(ctx, status)
}

// GetRecentOrders lists orders placed within the last windowDays days.
// A non-positive window uses the configured default (30 days if unset).
func (s *Service) GetRecentOrders(ctx context.Context, windowDays int) ([]Order, error) {
	if windowDays <= 0 {
		windowDays = s.RecentDays
	}
	if windowDays <= 0 {
		windowDays = defaultRecentDays
	}
	since := s.now().AddDate(0, 0, -windowDays)
	return s.Store.OrdersSince(ctx, since)
}
