// Package stockalert keeps the low-stock set current from order events.
package stockalert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	kafkax "github.com/ariefcatur/go-grocery-orders/internal/kafka"
	"github.com/ariefcatur/go-grocery-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Products interface {
	GetByID(ctx context.Context, id int64) (catalog.Product, error)
	LowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
}

type Alerts interface {
	Mark(ctx context.Context, productID int64, quantity int) error
	Clear(ctx context.Context, productID int64) error
	// Replace swaps the whole set for quantities, keyed by product id.
	Replace(ctx context.Context, quantities map[int64]int) error
}

type Dedup interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type Service struct {
	Products  Products
	Alerts    Alerts
	Dedup     Dedup // optional
	Threshold int
	Log       *logrus.Logger
}

func (s *Service) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// Rebuild replaces the set with every product currently at or below the
// threshold, dropping entries for products restocked in the meantime.
func (s *Service) Rebuild(ctx context.Context) error {
	low, err := s.Products.LowStock(ctx, s.Threshold)
	if err != nil {
		return err
	}
	quantities := make(map[int64]int, len(low))
	for _, p := range low {
		quantities[p.ID] = p.Quantity
	}
	if err := s.Alerts.Replace(ctx, quantities); err != nil {
		return fmt.Errorf("replace low-stock set: %w", err)
	}
	s.log().WithField("count", len(low)).Info("low-stock set rebuilt")
	return nil
}

// HandleOrderEvent is the consumer handler for TopicOrderEvents.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// A message that can never decode would block its partition forever.
		s.log().WithError(err).WithField("offset", m.Offset).Warn("skipping undecodable event")
		return nil
	}

	var items []orders.ItemLine
	switch env.EventType {
	case orders.EventProductStockChanged:
		p, err := kafkax.UnwrapPayload[orders.ProductStockChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		items = []orders.ItemLine{{ProductID: p.ProductID, Quantity: p.Quantity}}
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		items = p.Items
	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		items = p.Items
	default:
		return nil
	}

	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup lookup: %w", err)
		}
		if seen {
			return nil
		}
	}

	for _, it := range items {
		if err := s.refresh(ctx, it.ProductID); err != nil {
			return err
		}
	}

	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			s.log().WithError(err).WithField("event_id", env.EventID).Warn("dedup mark failed")
		}
	}
	s.log().WithFields(logrus.Fields{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"trace_id":   env.TraceID,
		"products":   len(items),
	}).Debug("order event applied")
	return nil
}

// refresh re-reads the product rather than applying the event's delta, so
// replays and out-of-order delivery converge on the stored quantity.
func (s *Service) refresh(ctx context.Context, productID int64) error {
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return s.Alerts.Clear(ctx, productID)
		}
		return fmt.Errorf("load product %d: %w", productID, err)
	}
	if p.Active && p.Quantity <= s.Threshold {
		return s.Alerts.Mark(ctx, p.ID, p.Quantity)
	}
	return s.Alerts.Clear(ctx, p.ID)
}
