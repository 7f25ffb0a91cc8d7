package httpx

import (
	"net/http"
	"strings"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/auth"
	"github.com/sirupsen/logrus"
)

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// authenticate puts the caller's auth.Principal in the request context.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondErr(w, r, a.Log, apperr.Unauthorized("Authentication required"))
			return
		}
		p, err := a.Auth.Authenticate(r.Context(), token)
		if err != nil {
			respondErr(w, r, a.Log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func requireRole(log *logrus.Logger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				respondErr(w, r, log, apperr.Unauthorized("Authentication required"))
				return
			}
			if p.Role != role {
				respondErr(w, r, log, apperr.Forbidden("Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principal is only called behind authenticate.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
