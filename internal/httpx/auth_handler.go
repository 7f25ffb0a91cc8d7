package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/auth"
	"github.com/ariefcatur/go-grocery-orders/internal/customers"
	"github.com/ariefcatur/go-grocery-orders/internal/validation"
)

type loginFunc func(ctx context.Context, c auth.Credentials) (auth.Session, error)

func (a *API) doLogin(w http.ResponseWriter, r *http.Request, login loginFunc) {
	var c auth.Credentials
	if err := decode(r, &c); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	s, err := login(r.Context(), c)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"message":    "Login successful",
		"token":      s.Token,
		"type":       s.Type,
		"id":         s.ID,
		"username":   s.Username,
		"email":      s.Email,
		"role":       s.Role,
		"expires_at": s.ExpiresAt,
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request)         { a.doLogin(w, r, a.Auth.Login) }
func (a *API) adminLogin(w http.ResponseWriter, r *http.Request)    { a.doLogin(w, r, a.Auth.AdminLogin) }
func (a *API) customerLogin(w http.ResponseWriter, r *http.Request) { a.doLogin(w, r, a.Auth.CustomerLogin) }

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var reg customers.Registration
	if err := decode(r, &reg); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	c, err := a.Customers.Register(r.Context(), reg)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusCreated, envelope{
		"message":  "Customer registered successfully",
		"customer": c,
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondErr(w, r, a.Log, apperr.Unauthorized("Authentication required"))
		return
	}
	if err := a.Auth.Logout(r.Context(), token); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"message": "Logout successful"})
}

// validate accepts the token as a query parameter or a bearer header.
func (a *API) validate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r)
	}
	if token == "" {
		respondErr(w, r, a.Log, apperr.Validation("Token is required"))
		return
	}
	valid := a.Auth.Validate(r.Context(), token)
	msg := "Token is valid"
	if !valid {
		msg = "Token is invalid"
	}
	respond(w, http.StatusOK, envelope{"valid": valid, "message": msg})
}

func (a *API) exists(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if !validation.HasText(username) {
		respondErr(w, r, a.Log, apperr.Validation("Username is required"))
		return
	}
	if err := validation.GuardInjection(username, "Username"); err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	ok, err := a.Auth.Exists(r.Context(), username)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"exists": ok})
}
