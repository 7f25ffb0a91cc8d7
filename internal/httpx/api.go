package httpx

import (
	"context"

	"github.com/ariefcatur/go-grocery-orders/internal/auth"
	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	"github.com/ariefcatur/go-grocery-orders/internal/customers"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	"github.com/ariefcatur/go-grocery-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type AuthService interface {
	Login(ctx context.Context, c auth.Credentials) (auth.Session, error)
	AdminLogin(ctx context.Context, c auth.Credentials) (auth.Session, error)
	CustomerLogin(ctx context.Context, c auth.Credentials) (auth.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Validate(ctx context.Context, token string) bool
	Exists(ctx context.Context, login string) (bool, error)
}

type CustomerService interface {
	Register(ctx context.Context, r customers.Registration) (customers.Customer, error)
	Update(ctx context.Context, id int64, p customers.Profile) (customers.Customer, error)
	UpdatePassword(ctx context.Context, id int64, password string) error
	GetByID(ctx context.Context, id int64) (customers.Customer, error)
	SearchByName(ctx context.Context, name string) ([]customers.Customer, error)
	ListActive(ctx context.Context) ([]customers.Customer, error)
	Deactivate(ctx context.Context, id int64) error
}

type CatalogService interface {
	Register(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
	Update(ctx context.Context, id int64, in catalog.ProductInput) (catalog.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (catalog.Product, error)
	SearchByName(ctx context.Context, name string) ([]catalog.Product, error)
	Search(ctx context.Context, term string) ([]catalog.Product, error)
	ListActive(ctx context.Context) ([]catalog.Product, error)
	ByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	InStock(ctx context.Context) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]string, error)
	UpdateQuantity(ctx context.Context, id int64, quantity *int) error
	LowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
	Reserve(ctx context.Context, productID, customerID int64, quantity int) (catalog.Product, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, req orders.PlaceOrder) (orders.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (orders.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status orders.Status) (orders.Order, error)
	GetOrderByID(ctx context.Context, orderID int64) (orders.Order, error)
	GetCustomerOrderDetails(ctx context.Context, customerID int64) ([]orders.Order, error)
	GetAllOrders(ctx context.Context) ([]orders.Order, error)
	GetOrdersByStatus(ctx context.Context, status orders.Status) ([]orders.Order, error)
	GetRecentOrders(ctx context.Context, windowDays int) ([]orders.Order, error)
}

// Idempotency remembers which order an Idempotency-Key produced. Claim
// returns claimed=false with the stored order id, or with 0 while the first
// placement is still running.
type Idempotency interface {
	Claim(ctx context.Context, customerID int64, key string) (orderID int64, claimed bool, err error)
	Remember(ctx context.Context, customerID int64, key string, orderID int64) error
	Release(ctx context.Context, customerID int64, key string) error
}

type StockAlerts interface {
	List(ctx context.Context) ([]redisx.LowStockEntry, error)
}

// API wires the services to routes. Idempotency and Alerts are optional.
type API struct {
	Auth              AuthService
	Customers         CustomerService
	Catalog           CatalogService
	Orders            OrderService
	Idempotency       Idempotency
	Alerts            StockAlerts
	LowStockThreshold int
	Log               *logrus.Logger
}

func (a *API) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", a.login)
		r.Post("/admin/login", a.adminLogin)
		r.Post("/customer/login", a.customerLogin)
		r.Post("/register", a.register)
		r.Post("/logout", a.logout)
		r.Post("/validate", a.validate)
		r.Get("/exists", a.exists)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", a.listProducts)
		r.Get("/search", a.searchProductsByName)
		r.Get("/search/all", a.searchProducts)
		r.Get("/in-stock", a.inStockProducts)
		r.Get("/categories", a.categories)
		r.Get("/category/{category}", a.productsByCategory)
		r.Get("/{productID}", a.getProduct)
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Use(a.authenticate, requireRole(a.Log, auth.RoleCustomer))
		r.Get("/profile", a.getProfile)
		r.Put("/profile", a.updateProfile)
		r.Delete("/profile", a.deactivateProfile)
		r.Put("/password", a.updatePassword)
		r.Get("/orders", a.myOrders)
		r.Post("/orders", a.placeOrder)
		r.Get("/orders/{orderID}", a.myOrder)
		r.Put("/orders/{orderID}/cancel", a.cancelMyOrder)
		r.Post("/reservations", a.reserveProduct)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(a.authenticate, requireRole(a.Log, auth.RoleAdmin))
		r.Get("/customers", a.listCustomers)
		r.Get("/customers/search", a.searchCustomers)
		r.Get("/customers/{customerID}", a.getCustomer)
		r.Put("/customers/{customerID}", a.updateCustomer)
		r.Post("/products", a.createProduct)
		r.Put("/products/{productID}", a.updateProduct)
		r.Delete("/products/{productID}", a.deleteProduct)
		r.Put("/products/{productID}/quantity", a.updateProductQuantity)
		r.Get("/products/low-stock", a.lowStockProducts)
		r.Get("/stock-alerts", a.stockAlerts)
		r.Get("/orders", a.allOrders)
		r.Get("/orders/recent", a.recentOrders)
		r.Get("/orders/status/{status}", a.ordersByStatus)
		r.Get("/orders/{orderID}", a.getOrder)
		r.Put("/orders/{orderID}/status", a.updateOrderStatus)
	})
}
