package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/domain"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, msg amqp.Publishing) error {
	args := m.Called(exchange, key, msg)
	return args.Error(0)
}

func TestPublisher_Notify(t *testing.T) {
	b := &domain.Booking{
		ID:         uuid.New(),
		ToolID:     uuid.New(),
		RenterID:   uuid.New(),
		OwnerID:    uuid.New(),
		TotalPrice: decimal.RequireFromString("30.00"),
	}
	event := domain.NewBookingEvent(domain.BookingEventApproved, b, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	t.Run("publishes persistent json", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", "booking.events", "booking.booking_approved", mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got domain.BookingEvent
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.DeliveryMode == amqp.Persistent &&
				msg.MessageId == event.ID.String() &&
				got.BookingID == b.ID &&
				got.Amount.Equal(b.TotalPrice)
		})).Return(nil)

		err := NewPublisher(ch, "booking.events").Notify(context.Background(), event)
		require.NoError(t, err)
		ch.AssertExpectations(t)
	})

	t.Run("wraps broker errors", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

		err := NewPublisher(ch, "booking.events").Notify(context.Background(), event)
		assert.ErrorContains(t, err, "channel closed")
	})

	t.Run("cancelled context skips publish", func(t *testing.T) {
		ch := new(MockChannel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(ch, "booking.events").Notify(ctx, event)
		assert.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "booking.payout_completed", RoutingKey(domain.BookingEventPayoutCompleted))
	assert.Equal(t, "booking.condition_reported", RoutingKey(domain.BookingEventConditionReport))
}

func TestConnectionURL(t *testing.T) {
	cfg := config.RabbitMQConfig{Host: "mq", Port: 5672, Username: "guest", Password: "p@ss", VHost: "/"}
	assert.Equal(t, "amqp://guest:p%40ss@mq:5672/", ConnectionURL(cfg))

	cfg.VHost = "toolrent"
	assert.Equal(t, "amqp://guest:p%40ss@mq:5672/toolrent", ConnectionURL(cfg))
}
