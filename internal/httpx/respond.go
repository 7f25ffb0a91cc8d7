package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// envelope is the body of every JSON response: success, an optional
// message, payload keys, and a unix-millisecond timestamp.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	body["timestamp"] = time.Now().UnixMilli()
	writeJSON(w, code, body)
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindInjection:
		return http.StatusBadRequest
	case apperr.KindInsufficientStock, apperr.KindInvalidState, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondErr maps err to a status and writes the failure envelope.
// Unclassified errors are logged and reported without their text.
func respondErr(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	kind := apperr.KindOf(err)
	code := statusOf(kind)
	body := envelope{
		"success":   false,
		"error":     kind.String(),
		"message":   err.Error(),
		"timestamp": time.Now().UnixMilli(),
	}

	entry := log.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     code,
		"request_id": middleware.GetReqID(r.Context()),
	})
	if kind == apperr.KindInternal {
		entry.Error("request failed")
		body["message"] = "Internal server error"
	} else {
		entry.Warn("request rejected")
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Detail != nil {
		body["details"] = ae.Detail
	}
	writeJSON(w, code, body)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid %s", name)
	}
	return id, nil
}
