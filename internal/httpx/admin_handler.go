package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	"github.com/ariefcatur/go-grocery-orders/internal/customers"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	"github.com/ariefcatur/go-grocery-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
)

func customerList(w http.ResponseWriter, cs []customers.Customer) {
	respond(w, http.StatusOK, envelope{"customers": cs, "count": len(cs)})
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.Customers.ListActive(r.Context())
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	customerList(w, cs)
}

func (a *API) searchCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.Customers.SearchByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	customerList(w, cs)
}

func (a *API) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customerID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	c, err := a.Customers.GetByID(r.Context(), id)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"customer": c})
}

func (a *API) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customerID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	var p customers.Profile
	if err := decode(r, &p); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	c, err := a.Customers.Update(r.Context(), id, p)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Customer updated successfully", "customer": c})
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	p, err := a.Catalog.Register(r.Context(), in)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"message": "Product created successfully", "product": p})
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	p, err := a.Catalog.Update(r.Context(), id, in)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Product updated successfully", "product": p})
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if err := a.Catalog.Delete(r.Context(), id); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Product deleted successfully"})
}

type quantityChange struct {
	Quantity *int `json:"quantity"`
}

func (a *API) updateProductQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	var req quantityChange
	if err := decode(r, &req); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if err := a.Catalog.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Product quantity updated successfully"})
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("Invalid %s: %s", name, raw)
	}
	return n, nil
}

func (a *API) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", a.LowStockThreshold)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	ps, err := a.Catalog.LowStock(r.Context(), threshold)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"products": ps, "count": len(ps), "threshold": threshold})
}

// stockAlerts lists what the stock alert consumer has flagged so far.
func (a *API) stockAlerts(w http.ResponseWriter, r *http.Request) {
	list := []redisx.LowStockEntry{}
	if a.Alerts != nil {
		var err error
		if list, err = a.Alerts.List(r.Context()); err != nil {
			respondErr(w, r, a.Log, err)
			return
		}
	}
	respond(w, http.StatusOK, envelope{"alerts": list, "count": len(list)})
}

func (a *API) allOrders(w http.ResponseWriter, r *http.Request) {
	list, err := a.Orders.GetAllOrders(r.Context())
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	orderList(w, list)
}

func (a *API) recentOrders(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 0)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if days < 0 {
		respondErr(w, r, a.Log, apperr.Validation("days must be positive"))
		return
	}
	list, err := a.Orders.GetRecentOrders(r.Context(), days)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	orderList(w, list)
}

func (a *API) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := orders.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	list, err := a.Orders.GetOrdersByStatus(r.Context(), status)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	orderList(w, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	o, err := a.Orders.GetOrderByID(r.Context(), id)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"order": o})
}

type statusChange struct {
	Status string `json:"status"`
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	var req statusChange
	if err := decode(r, &req); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	status, err := orders.ParseStatus(req.Status)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	o, err := a.Orders.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Order status updated successfully", "order": o})
}
