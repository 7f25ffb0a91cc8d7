package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/customers"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
	"github.com/sirupsen/logrus"
)

const maxIdempotencyKeyLen = 128

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	c, err := a.Customers.GetByID(r.Context(), principal(r).ID)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"customer": c})
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var p customers.Profile
	if err := decode(r, &p); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	c, err := a.Customers.Update(r.Context(), principal(r).ID, p)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Profile updated successfully", "customer": c})
}

// deactivateProfile also revokes the token used for the request.
func (a *API) deactivateProfile(w http.ResponseWriter, r *http.Request) {
	if err := a.Customers.Deactivate(r.Context(), principal(r).ID); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if token, ok := bearerToken(r); ok {
		if err := a.Auth.Logout(r.Context(), token); err != nil {
			a.Log.WithError(err).Warn("revoke token after deactivation")
		}
	}
	respond(w, http.StatusOK, envelope{"message": "Account deactivated successfully"})
}

type passwordChange struct {
	NewPassword string `json:"new_password"`
}

func (a *API) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChange
	if err := decode(r, &req); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if !validation.HasText(req.NewPassword) {
		respondErr(w, r, a.Log, apperr.Validation("New password is required"))
		return
	}
	if err := a.Customers.UpdatePassword(r.Context(), principal(r).ID, req.NewPassword); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Password updated successfully"})
}

func orderList(w http.ResponseWriter, list []orders.Order) {
	respond(w, http.StatusOK, envelope{"orders": list, "count": len(list)})
}

func (a *API) myOrders(w http.ResponseWriter, r *http.Request) {
	list, err := a.Orders.GetCustomerOrderDetails(r.Context(), principal(r).ID)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	orderList(w, list)
}

// placeOrder always orders for the caller, whatever customer_id the body
// carries. A repeated Idempotency-Key returns the order it first created,
// or Conflict while that first request is still running.
func (a *API) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrder
	if err := decode(r, &req); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	req.CustomerID = principal(r).ID
	ctx := r.Context()

	key := r.Header.Get("Idempotency-Key")
	if len(key) > maxIdempotencyKeyLen {
		respondErr(w, r, a.Log, apperr.Validation("Idempotency-Key must not exceed %d characters", maxIdempotencyKeyLen))
		return
	}
	useKey := key != "" && a.Idempotency != nil
	if useKey {
		id, claimed, err := a.Idempotency.Claim(ctx, req.CustomerID, key)
		switch {
		case err != nil:
			a.Log.WithError(err).Warn("idempotency claim failed, placing without key")
			useKey = false
		case !claimed && id == 0:
			respondErr(w, r, a.Log, apperr.Conflict("An order with this Idempotency-Key is still being processed"))
			return
		case !claimed:
			o, err := a.Orders.GetOrderByID(ctx, id)
			if err != nil {
				respondErr(w, r, a.Log, err)
				return
			}
			respond(w, http.StatusOK, envelope{"message": "Order already created", "order": o, "idempotent": true})
			return
		}
	}

	o, err := a.Orders.CreateOrder(ctx, req)
	if err != nil {
		if useKey {
			if rerr := a.Idempotency.Release(ctx, req.CustomerID, key); rerr != nil {
				a.Log.WithError(rerr).Warn("idempotency release failed")
			}
		}
		respondErr(w, r, a.Log, err)
		return
	}
	if useKey {
		if err := a.Idempotency.Remember(ctx, req.CustomerID, key, o.ID); err != nil {
			a.Log.WithError(err).WithFields(logrus.Fields{"order_id": o.ID}).Warn("idempotency store failed")
		}
	}
	respond(w, http.StatusCreated, envelope{"message": "Order created successfully", "order": o})
}

// ownOrder loads an order and fails with Forbidden when it belongs to
// someone other than the caller.
func (a *API) ownOrder(r *http.Request) (orders.Order, error) {
	id, err := pathID(r, "orderID")
	if err != nil {
		return orders.Order{}, err
	}
	o, err := a.Orders.GetOrderByID(r.Context(), id)
	if err != nil {
		return orders.Order{}, err
	}
	if o.CustomerID != principal(r).ID {
		return orders.Order{}, apperr.Forbidden("Access denied: Order does not belong to the authenticated customer")
	}
	return o, nil
}

func (a *API) myOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.ownOrder(r)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"order": o})
}

func (a *API) cancelMyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.ownOrder(r)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	cancelled, err := a.Orders.CancelOrder(r.Context(), o.ID)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Order cancelled successfully", "order": cancelled})
}

type reservationRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (a *API) reserveProduct(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	if req.ProductID <= 0 {
		respondErr(w, r, a.Log, apperr.Validation("Product ID is required"))
		return
	}
	p, err := a.Catalog.Reserve(r.Context(), req.ProductID, principal(r).ID, req.Quantity)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Product reserved successfully", "product": p})
}
