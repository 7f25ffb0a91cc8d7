package catalog

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeStore struct {
	products map[int64]Product
	nextID   int64
}

func (f *fakeStore) sorted(keep func(Product) bool) []Product {
	out := []Product{}
	for _, p := range f.products {
		if p.Active && keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeStore) Insert(ctx context.Context, p *Product) error {
	f.nextID++
	p.ID = f.nextID
	p.Active = true
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) Update(ctx context.Context, p *Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return ErrNotFound
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) SetActive(ctx context.Context, id int64, active bool) error {
	p, ok := f.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = active
	f.products[id] = p
	return nil
}

func (f *fakeStore) SetQuantity(ctx context.Context, id int64, quantity int) error {
	p, ok := f.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Quantity = quantity
	f.products[id] = p
	return nil
}

func (f *fakeStore) ByID(ctx context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ActiveByName(ctx context.Context, name string) (Product, error) {
	for _, p := range f.products {
		if p.Active && p.Name == name {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (f *fakeStore) SearchByName(ctx context.Context, fragment string) ([]Product, error) {
	return f.sorted(func(p Product) bool { return contains(p.Name, fragment) }), nil
}

func (f *fakeStore) Search(ctx context.Context, fragment string) ([]Product, error) {
	return f.sorted(func(p Product) bool { return contains(p.Name, fragment) || contains(p.Category, fragment) }), nil
}

func (f *fakeStore) ListActive(ctx context.Context) ([]Product, error) {
	return f.sorted(func(Product) bool { return true }), nil
}

func (f *fakeStore) ByCategory(ctx context.Context, category string) ([]Product, error) {
	return f.sorted(func(p Product) bool { return p.Category == category }), nil
}

func (f *fakeStore) InStock(ctx context.Context) ([]Product, error) {
	return f.sorted(func(p Product) bool { return p.Quantity > 0 }), nil
}

func (f *fakeStore) Categories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range f.sorted(func(p Product) bool { return p.Category != "" }) {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) AtOrBelow(ctx context.Context, threshold int) ([]Product, error) {
	return f.sorted(func(p Product) bool { return p.Quantity <= threshold }), nil
}

func (f *fakeStore) Reserve(ctx context.Context, id, customerID int64, quantity int) (Product, error) {
	p, ok := f.products[id]
	if !ok || !p.Active {
		return Product{}, ErrNotFound
	}
	if p.Quantity < quantity {
		return p, ErrShortStock
	}
	p.Quantity -= quantity
	p.Reserved = true
	p.ReservedBy = &customerID
	f.products[id] = p
	return p, nil
}

func intPtr(i int) *int { return &i }

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	st := &fakeStore{products: map[int64]Product{}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := &Service{Store: st, Log: log}

	for _, in := range []ProductInput{
		{Name: "Green Apples", Price: price("2.50"), Quantity: intPtr(40), Category: "Fruit"},
		{Name: "Bananas", Price: price("1.10"), Quantity: intPtr(3), Category: "Fruit"},
		{Name: "Whole Milk", Price: price("0.99"), Quantity: intPtr(0), Category: "Dairy"},
	} {
		if _, err := svc.Register(context.Background(), in); err != nil {
			t.Fatalf("seed %s: %v", in.Name, err)
		}
	}
	return svc, st
}

func TestRegister(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ProductInput{Name: "Bananas", Price: price("1.00"), Quantity: intPtr(1)})
	if !apperr.Is(err, apperr.KindConflict) || err.Error() != "Product with name 'Bananas' already exists" {
		t.Errorf("duplicate err = %v", err)
	}

	tests := []struct {
		name string
		in   ProductInput
		kind apperr.Kind
	}{
		{"missing price", ProductInput{Name: "Rice", Quantity: intPtr(1)}, apperr.KindValidation},
		{"three decimals", ProductInput{Name: "Rice", Price: price("1.999"), Quantity: intPtr(1)}, apperr.KindValidation},
		{"negative quantity", ProductInput{Name: "Rice", Price: price("1"), Quantity: intPtr(-1)}, apperr.KindValidation},
		{"injected name", ProductInput{Name: "Rice; DROP TABLE products", Price: price("1"), Quantity: intPtr(1)}, apperr.KindInjection},
	}
	for _, tc := range tests {
		if _, err := svc.Register(ctx, tc.in); apperr.KindOf(err) != tc.kind {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.kind)
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	in := ProductInput{Name: "Red Apples", Price: price("2.75"), Quantity: intPtr(10), Category: "Fruit"}
	got, err := svc.Update(ctx, 1, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Red Apples" || !got.Price.Equal(decimal.RequireFromString("2.75")) {
		t.Errorf("updated = %+v", got)
	}

	in.Name = "Bananas"
	if _, err := svc.Update(ctx, 1, in); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("rename clash err = %v", err)
	}

	if err := svc.Delete(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if st.products[2].Active {
		t.Error("product still active after delete")
	}
	// The name is free again once the old product is inactive.
	if _, err := svc.Update(ctx, 1, in); err != nil {
		t.Errorf("rename to deleted name: %v", err)
	}
	if err := svc.Delete(ctx, 99); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("delete unknown err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	byName, err := svc.SearchByName(ctx, "apple")
	if err != nil || len(byName) != 1 {
		t.Errorf("SearchByName = %v, %v", byName, err)
	}
	both, err := svc.Search(ctx, "fruit")
	if err != nil || len(both) != 2 {
		t.Errorf("Search(fruit) = %v, %v", both, err)
	}
	if _, err := svc.Search(ctx, "caviar"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("no match err = %v", err)
	}
	if _, err := svc.SearchByName(ctx, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank err = %v", err)
	}
	if _, err := svc.Search(ctx, "milk' OR 1=1"); !apperr.Is(err, apperr.KindInjection) {
		t.Errorf("injection err = %v", err)
	}
	if _, err := svc.ByCategory(ctx, "Dairy<script>"); !apperr.Is(err, apperr.KindInjection) {
		t.Errorf("ByCategory injection err = %v", err)
	}
}

func TestListings(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	inStock, _ := svc.InStock(ctx)
	if len(inStock) != 2 {
		t.Errorf("InStock = %d, want 2", len(inStock))
	}
	cats, _ := svc.Categories(ctx)
	if strings.Join(cats, ",") != "Dairy,Fruit" {
		t.Errorf("Categories = %v", cats)
	}
	fruit, _ := svc.ByCategory(ctx, "Fruit")
	if len(fruit) != 2 {
		t.Errorf("ByCategory = %d, want 2", len(fruit))
	}
	low, _ := svc.LowStock(ctx, 5)
	if len(low) != 2 {
		t.Errorf("LowStock = %d, want 2", len(low))
	}
	if _, err := svc.LowStock(ctx, -1); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("negative threshold err = %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateQuantity(ctx, 3, intPtr(25)); err != nil {
		t.Fatal(err)
	}
	if st.products[3].Quantity != 25 {
		t.Errorf("quantity = %d", st.products[3].Quantity)
	}
	if err := svc.UpdateQuantity(ctx, 3, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("nil quantity err = %v", err)
	}
	if err := svc.UpdateQuantity(ctx, 42, intPtr(1)); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown product err = %v", err)
	}
}

func TestReserve(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	p, err := svc.Reserve(ctx, 2, 7, 2)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if p.Quantity != 1 || !p.Reserved || p.ReservedBy == nil || *p.ReservedBy != 7 {
		t.Errorf("reserved = %+v", p)
	}

	_, err = svc.Reserve(ctx, 2, 7, 5)
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("short err = %v", err)
	}
	if want := "Insufficient quantity for product: Bananas. Available: 1, Requested: 5"; err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
	if st.products[2].Quantity != 1 {
		t.Errorf("stock changed on failure: %d", st.products[2].Quantity)
	}
	if _, err := svc.Reserve(ctx, 2, 7, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("zero quantity err = %v", err)
	}
	if _, err := svc.Reserve(ctx, 99, 7, 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown product err = %v", err)
	}
}

type stockChange struct {
	id       int64
	quantity int
	active   bool
}

type recordingEvents struct{ changes []stockChange }

func (r *recordingEvents) ProductStockChanged(ctx context.Context, id int64, quantity int, active bool) {
	r.changes = append(r.changes, stockChange{id, quantity, active})
}

func TestStockChangesArePublished(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ev := &recordingEvents{}
	svc.Events = ev
	ctx := context.Background()

	if err := svc.UpdateQuantity(ctx, 2, intPtr(30)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(ctx, 3, ProductInput{Name: "Whole Milk", Price: price("0.99"), Quantity: intPtr(12)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reserve(ctx, 2, 7, 28); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	// Rejected changes publish nothing.
	_ = svc.UpdateQuantity(ctx, 2, intPtr(-4))
	_, _ = svc.Reserve(ctx, 2, 7, 100)

	want := []stockChange{
		{2, 30, true},
		{3, 12, true},
		{2, 2, true},
		{1, 40, false},
	}
	if len(ev.changes) != len(want) {
		t.Fatalf("changes = %+v, want %+v", ev.changes, want)
	}
	for i := range want {
		if ev.changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, ev.changes[i], want[i])
		}
	}
}
