package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/streadway/amqp"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
)

// Channel is what the publisher needs from a broker connection.
type Channel interface {
	Publish(exchange, key string, msg amqp.Publishing) error
}

// Publisher emits booking events on a topic exchange with routing key
// "booking.<event type>", e.g. booking.booking_approved.
type Publisher struct {
	ch       Channel
	exchange string
}

func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func RoutingKey(t domain.BookingEventType) string {
	return "booking." + strings.ToLower(string(t))
}

func (p *Publisher) Notify(ctx context.Context, event domain.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	key := RoutingKey(event.Type)
	logger.ExternalServiceCall("rabbitmq", "publish", "routingKey", key, "eventID", event.ID)
	err = p.ch.Publish(p.exchange, key, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Headers: amqp.Table{
			"booking_id": event.BookingID.String(),
			"owner_id":   event.OwnerID.String(),
			"event_type": string(event.Type),
		},
	})
	logger.ExternalServiceResult("rabbitmq", "publish", err, "routingKey", key)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
