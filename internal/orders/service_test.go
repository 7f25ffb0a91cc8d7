package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService() (*Service, *memStore, *recordingPublisher) {
	st := newMemStore()
	st.addCustomer(1, "alice")
	st.addCustomer(2, "bob")
	st.addProduct(10, "Apples", "5.00", 10)
	st.addProduct(11, "Bread", "3.00", 3)
	st.addProduct(12, "Milk", "1.25", 50)
	pub := &recordingPublisher{}
	return &Service{Store: st, Events: pub, Log: quietLogger()}, st, pub
}

func placeReq(customerID int64, items ...ItemInput) PlaceOrder {
	return PlaceOrder{
		CustomerID:      customerID,
		DeliveryAddress: "12 Market Street",
		ContactNumber:   "9876543210",
		Items:           items,
	}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateOrder_computesTotalAndDecrementsStock(t *testing.T) {
	t.Parallel()
	svc, st, pub := newTestService()

	req := placeReq(1, ItemInput{ProductID: 10, Quantity: 2}, ItemInput{ProductID: 11, Quantity: 1})
	req.DeclaredTotal = decPtr("999.99")

	o, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("13.00")) {
		t.Errorf("TotalAmount = %s, want 13.00", o.TotalAmount)
	}
	if o.Status != StatusPending {
		t.Errorf("Status = %s, want PENDING", o.Status)
	}
	if o.CustomerName != "alice" {
		t.Errorf("CustomerName = %q", o.CustomerName)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if got := o.Items[0]; !got.UnitPrice.Equal(decimal.RequireFromString("5")) || !got.TotalPrice.Equal(decimal.RequireFromString("10")) {
		t.Errorf("first line = %+v", got)
	}
	if got := st.quantity(10); got != 8 {
		t.Errorf("apples stock = %d, want 8", got)
	}
	if got := st.quantity(11); got != 2 {
		t.Errorf("bread stock = %d, want 2", got)
	}

	stored, err := svc.GetOrderByID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if !stored.TotalAmount.Equal(o.TotalAmount) || len(stored.Items) != 2 {
		t.Errorf("stored order = %+v", stored)
	}

	if len(pub.events) != 1 || pub.events[0].Type != EventOrderPlaced {
		t.Errorf("events = %+v, want one OrderPlaced", pub.events)
	}
}

func TestCreateOrder_insufficientStockLeavesStockUntouched(t *testing.T) {
	t.Parallel()
	svc, st, pub := newTestService()

	_, err := svc.CreateOrder(context.Background(), placeReq(1, ItemInput{ProductID: 11, Quantity: 5}))
	if apperr.KindOf(err) != apperr.KindInsufficientStock {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatal("expected *apperr.Error")
	}
	short, ok := ae.Detail.(apperr.StockShortage)
	if !ok || short.ProductName != "Bread" || short.Available != 3 || short.Requested != 5 {
		t.Errorf("detail = %+v", ae.Detail)
	}
	if got := st.quantity(11); got != 3 {
		t.Errorf("bread stock = %d, want 3", got)
	}
	if all, _ := svc.GetAllOrders(context.Background()); len(all) != 0 {
		t.Errorf("orders = %d, want none", len(all))
	}
	if len(pub.events) != 0 {
		t.Errorf("events = %+v, want none", pub.events)
	}
}

func TestCreateOrder_laterLineFailureRollsBackEarlierLines(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), placeReq(1,
		ItemInput{ProductID: 10, Quantity: 4},
		ItemInput{ProductID: 12, Quantity: 5},
		ItemInput{ProductID: 11, Quantity: 9},
	))
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
	if got := st.quantity(10); got != 10 {
		t.Errorf("apples stock = %d, want 10", got)
	}
	if got := st.quantity(12); got != 50 {
		t.Errorf("milk stock = %d, want 50", got)
	}
}

func TestCreateOrder_duplicateLinesShareStock(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), placeReq(1,
		ItemInput{ProductID: 11, Quantity: 2},
		ItemInput{ProductID: 11, Quantity: 2},
	))
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
	if got := st.quantity(11); got != 3 {
		t.Errorf("bread stock = %d, want 3", got)
	}
}

func TestCreateOrder_notFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prepare func(*memStore)
		req     PlaceOrder
		wantMsg string
	}{
		{
			name:    "unknown customer",
			req:     placeReq(99, ItemInput{ProductID: 10, Quantity: 1}),
			wantMsg: "Customer not found with ID: 99",
		},
		{
			name:    "unknown product",
			req:     placeReq(1, ItemInput{ProductID: 404, Quantity: 1}),
			wantMsg: "Product not found with ID: 404",
		},
		{
			name: "inactive product",
			prepare: func(s *memStore) {
				p := s.products[12]
				p.Active = false
				s.products[12] = p
			},
			req:     placeReq(1, ItemInput{ProductID: 12, Quantity: 1}),
			wantMsg: "Product not found with ID: 12",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, st, _ := newTestService()
			if tc.prepare != nil {
				tc.prepare(st)
			}
			_, err := svc.CreateOrder(context.Background(), tc.req)
			if !apperr.Is(err, apperr.KindNotFound) {
				t.Fatalf("err = %v, want NotFound", err)
			}
			if err.Error() != tc.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestCreateOrder_validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edit func(*PlaceOrder)
		kind apperr.Kind
	}{
		{"blank address", func(r *PlaceOrder) { r.DeliveryAddress = "  " }, apperr.KindValidation},
		{"injected address", func(r *PlaceOrder) { r.DeliveryAddress = "1 Road'; DROP TABLE orders" }, apperr.KindInjection},
		{"short phone", func(r *PlaceOrder) { r.ContactNumber = "12345" }, apperr.KindValidation},
		{"zero quantity", func(r *PlaceOrder) { r.Items[0].Quantity = 0 }, apperr.KindValidation},
		{"bad product id", func(r *PlaceOrder) { r.Items[0].ProductID = 0 }, apperr.KindValidation},
		{"empty cart without total", func(r *PlaceOrder) { r.Items = nil }, apperr.KindValidation},
		{"empty cart with 3dp total", func(r *PlaceOrder) { r.Items = nil; r.DeclaredTotal = decPtr("1.005") }, apperr.KindValidation},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, st, _ := newTestService()
			req := placeReq(1, ItemInput{ProductID: 10, Quantity: 1})
			tc.edit(&req)

			_, err := svc.CreateOrder(context.Background(), req)
			if got := apperr.KindOf(err); got != tc.kind {
				t.Fatalf("kind = %v (%v), want %v", got, err, tc.kind)
			}
			if got := st.quantity(10); got != 10 {
				t.Errorf("stock changed to %d", got)
			}
		})
	}
}

func TestCreateOrder_emptyCartUsesDeclaredTotal(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService()

	req := placeReq(2)
	req.DeclaredTotal = decPtr("42.50")
	o, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("TotalAmount = %s, want 42.50", o.TotalAmount)
	}
	if len(o.Items) != 0 {
		t.Errorf("items = %d, want 0", len(o.Items))
	}
}

func TestCancelOrder_restoresStock(t *testing.T) {
	t.Parallel()
	svc, st, pub := newTestService()
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 10, Quantity: 3}, ItemInput{ProductID: 11, Quantity: 3}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.quantity(11) != 0 {
		t.Fatalf("bread stock = %d, want 0", st.quantity(11))
	}

	cancelled, err := svc.CancelOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("Status = %s", cancelled.Status)
	}
	if st.quantity(10) != 10 || st.quantity(11) != 3 {
		t.Errorf("stock = %d/%d, want 10/3", st.quantity(10), st.quantity(11))
	}

	_, err = svc.CancelOrder(ctx, o.ID)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("second cancel err = %v, want InvalidState", err)
	}
	if st.quantity(10) != 10 {
		t.Errorf("second cancel restored stock again: %d", st.quantity(10))
	}
	if n := len(pub.events); n != 2 || pub.events[1].Type != EventOrderCancelled {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestCancelOrder_deliveredIsRejected(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 10, Quantity: 2}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, o.ID, StatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err = svc.CancelOrder(ctx, o.ID)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("err = %v, want InvalidState", err)
	}
	if want := "Order cannot be cancelled. Current status: DELIVERED"; err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
	got, _ := svc.GetOrderByID(ctx, o.ID)
	if got.Status != StatusDelivered {
		t.Errorf("Status = %s, want DELIVERED", got.Status)
	}
	if st.quantity(10) != 8 {
		t.Errorf("stock = %d, want 8", st.quantity(10))
	}
}

func TestCancelOrder_unknownOrder(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService()

	_, err := svc.CancelOrder(context.Background(), 77)
	if !apperr.Is(err, apperr.KindNotFound) || err.Error() != "Order not found with ID: 77" {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()
	svc, st, pub := newTestService()
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 12, Quantity: 4}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// No transition table: any valid status may follow any other.
	for _, s := range []Status{StatusShipped, StatusPending, StatusCancelled} {
		got, err := svc.UpdateOrderStatus(ctx, o.ID, s)
		if err != nil {
			t.Fatalf("update to %s: %v", s, err)
		}
		if got.Status != s {
			t.Errorf("Status = %s, want %s", got.Status, s)
		}
	}
	// Setting CANCELLED directly does not return stock.
	if st.quantity(12) != 46 {
		t.Errorf("stock = %d, want 46", st.quantity(12))
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != EventOrderStatusChanged || last.From != StatusPending || last.Order.Status != StatusCancelled {
		t.Errorf("last event = %+v", last)
	}

	if _, err := svc.UpdateOrderStatus(ctx, o.ID, Status("LOST")); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("invalid status err = %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, 999, StatusShipped); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown order err = %v", err)
	}
}

func TestQueries(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService()
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 10, Quantity: 1}))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateOrder(ctx, placeReq(2, ItemInput{ProductID: 12, Quantity: 1}))
	if err != nil {
		t.Fatal(err)
	}
	third, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 12, Quantity: 2}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, second.ID, StatusShipped); err != nil {
		t.Fatal(err)
	}

	all, _ := svc.GetAllOrders(ctx)
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("GetAllOrders order = %v", ids(all))
	}

	mine, err := svc.GetCustomerOrderDetails(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != third.ID {
		t.Errorf("customer orders = %v", ids(mine))
	}
	if _, err := svc.GetCustomerOrderDetails(ctx, 404); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown customer err = %v", err)
	}

	st.addCustomer(3, "carol")
	none, err := svc.GetCustomerOrderDetails(ctx, 3)
	if err != nil || len(none) != 0 {
		t.Errorf("customer without orders = %v, %v", none, err)
	}

	shipped, _ := svc.GetOrdersByStatus(ctx, StatusShipped)
	if len(shipped) != 1 || shipped[0].ID != second.ID {
		t.Errorf("shipped = %v", ids(shipped))
	}
	if _, err := svc.GetOrdersByStatus(ctx, Status("")); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("empty status err = %v", err)
	}

	if _, err := svc.GetOrderByID(ctx, 12345); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("GetOrderByID err = %v", err)
	}
}

func TestGetRecentOrders_window(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService()
	ctx := context.Background()

	old := st.clock
	if _, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 12, Quantity: 1})); err != nil {
		t.Fatal(err)
	}
	st.clock = old.AddDate(0, 0, 40)
	recent, err := svc.CreateOrder(ctx, placeReq(1, ItemInput{ProductID: 12, Quantity: 1}))
	if err != nil {
		t.Fatal(err)
	}
	svc.Now = func() time.Time { return old.AddDate(0, 0, 45) }

	got, _ := svc.GetRecentOrders(ctx, 0)
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Errorf("default window = %v, want [%d]", ids(got), recent.ID)
	}
	got, _ = svc.GetRecentOrders(ctx, 60)
	if len(got) != 2 {
		t.Errorf("60 day window = %v, want both", ids(got))
	}

	svc.RecentDays = 3
	got, _ = svc.GetRecentOrders(ctx, -1)
	if len(got) != 0 {
		t.Errorf("configured 3 day window = %v, want none", ids(got))
	}
}

func ids(list []Order) []int64 {
	out := make([]int64, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}
