package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// CartChangedEvent is the wire shape of one cart-change notification.
type CartChangedEvent struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// remoteRefresher is what the feed drives; the registry satisfies it.
type remoteRefresher interface {
	NotifyRemoteChange(ctx context.Context, userID string)
}

// Feed consumes the cart change topic and triggers a full authoritative
// reload for the affected user. The payload carries no row data on purpose:
// the strategy is re-fetch-the-world, not merge.
type Feed struct {
	reader   *kafka.Reader
	registry remoteRefresher
}

func NewFeed(registry remoteRefresher, brokers ...string) *Feed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "cart-changes",
		GroupID:  "storefront-cartsync",
		MaxBytes: 10e6, // 10MB
	})
	return &Feed{reader: reader, registry: registry}
}

func (f *Feed) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		f.processMessage(ctx)
	}
}

func (f *Feed) Close() {
	if err := f.reader.Close(); err != nil {
		log.Printf("error closing cart feed reader: %v", err)
	}
}

func (f *Feed) processMessage(ctx context.Context) {
	m, err := f.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading cart change message: %v", err)
		return
	}

	f.handle(ctx, m.Value)
}

func (f *Feed) handle(ctx context.Context, payload []byte) {
	var event CartChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("error parsing cart change message: %v", err)
		return
	}
	if event.UserID == "" {
		log.Println("cart change message without user_id, skipping")
		return
	}

	f.registry.NotifyRemoteChange(ctx, event.UserID)
}

// Publisher emits cart-change notifications for other devices of the same
// buyer. Delivery is best-effort; the durable rows are already written.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "cart-changes",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) CartChanged(ctx context.Context, userID string) {
	payload, err := json.Marshal(CartChangedEvent{UserID: userID, ChangedAt: time.Now()})
	if err != nil {
		log.Printf("failed to marshal cart change event: %v", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(userID), // per-user ordering
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("failed to publish cart change for user %s: %v", userID, err)
	}
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close cart change writer: %w", err)
	}
	return nil
}
