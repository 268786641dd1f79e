// Package notify publishes order lifecycle events for the notification
// collaborator (email dispatch, order-detail views). Delivery is
// fire-and-forget: a failure here must never affect the checkout result.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const (
	EventOrderConfirmed     = "order.confirmed"
	EventOrderStatusChanged = "order.status_changed"
)

type orderLinePayload struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
}

type orderEventPayload struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	Status      string             `json:"status"`
	TotalAmount float64            `json:"total_amount"`
	PaymentMode string             `json:"payment_mode"`
	Items       []orderLinePayload `json:"items,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes order events to the order-events topic, keyed by
// order id for per-order ordering. A circuit breaker keeps a dead broker
// from stalling every checkout on write timeouts.
type KafkaNotifier struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[any]
}

func NewKafkaNotifier(brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newNotifier(w)
}

func newNotifier(w messageWriter) *KafkaNotifier {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "order-notifications",
		Timeout: 30 * time.Second,
	})
	return &KafkaNotifier{writer: w, breaker: breaker}
}

func (n *KafkaNotifier) OrderConfirmed(ctx context.Context, order *domain.Order, lines []domain.OrderLine) {
	items := make([]orderLinePayload, len(lines))
	for i, l := range lines {
		items[i] = orderLinePayload{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
		}
	}
	n.publish(ctx, EventOrderConfirmed, order, items)
}

func (n *KafkaNotifier) OrderStatusChanged(ctx context.Context, order *domain.Order, status domain.OrderStatus) {
	o := *order
	o.Status = status
	n.publish(ctx, EventOrderStatusChanged, &o, nil)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, order *domain.Order, items []orderLinePayload) {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:     order.ID.String(),
		UserID:      order.UserID,
		Email:       order.Email,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		PaymentMode: string(order.PaymentMode),
		Items:       items,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		log.Printf("failed to marshal %s event for order %s: %v", eventType, order.ID, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	_, err = n.breaker.Execute(func() (any, error) {
		return nil, n.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		log.Printf("failed to publish %s for order %s: %v", eventType, order.ID, err)
	}
}
