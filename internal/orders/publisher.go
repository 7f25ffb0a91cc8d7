package orders

import (
	"context"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-grocery-orders/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Sink is where encoded events go. *kafka.Producer satisfies it.
type Sink interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// KafkaPublisher turns committed workflow changes into envelopes on
// TopicOrderEvents, keyed by order id so one order's events stay ordered.
type KafkaPublisher struct {
	Sink     Sink
	Producer string
	Now      func() time.Time
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o Order) {
	p.publish(ctx, EventOrderPlaced, o.ID, orderCorrelation(o.ID), OrderPlacedPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Items:       itemLines(o.Items),
		TotalAmount: o.TotalAmount,
	})
}

func (p *KafkaPublisher) OrderCancelled(ctx context.Context, o Order) {
	p.publish(ctx, EventOrderCancelled, o.ID, orderCorrelation(o.ID), OrderCancelledPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Items:      itemLines(o.Items),
	})
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, o Order, from Status) {
	p.publish(ctx, EventOrderStatusChanged, o.ID, orderCorrelation(o.ID), OrderStatusChangedPayload{
		OrderID: o.ID,
		From:    from,
		To:      o.Status,
	})
}

// ProductStockChanged is keyed by product id; stock consumers only need the
// latest state per product.
func (p *KafkaPublisher) ProductStockChanged(ctx context.Context, productID int64, quantity int, active bool) {
	p.publish(ctx, EventProductStockChanged, productID, "product:"+strconv.FormatInt(productID, 10),
		ProductStockChangedPayload{ProductID: productID, Quantity: quantity, Active: active})
}

func orderCorrelation(orderID int64) string { return strconv.FormatInt(orderID, 10) }

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, key int64, correlationID string, payload any) {
	if p == nil || p.Sink == nil {
		return
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    now().UTC(),
		Producer:      p.Producer,
		TraceID:       kafkax.TraceID(ctx),
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Sink.Publish(PartitionKey(key), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
