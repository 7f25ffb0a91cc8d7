package orders

import (
	"strings"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var statuses = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

func (s Status) Valid() bool { return statuses[s] }

// Cancellable reports whether an order in status s may be cancelled.
// Administrators may set any status directly; only cancellation is gated.
func (s Status) Cancellable() bool {
	return s != StatusDelivered && s != StatusCancelled
}

// ParseStatus accepts any letter case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s == "" {
		return "", apperr.Validation("Status is required")
	}
	if !s.Valid() {
		return "", apperr.Validation("Invalid order status: %s", raw)
	}
	return s, nil
}
