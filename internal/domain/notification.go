package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingEventType string

const (
	BookingEventRequested       BookingEventType = "BOOKING_REQUESTED"
	BookingEventApproved        BookingEventType = "BOOKING_APPROVED"
	BookingEventRejected        BookingEventType = "BOOKING_REJECTED"
	BookingEventCancelled       BookingEventType = "BOOKING_CANCELLED"
	BookingEventPaid            BookingEventType = "BOOKING_PAID"
	BookingEventConditionReport BookingEventType = "CONDITION_REPORTED"
	BookingEventDepositPaid     BookingEventType = "DEPOSIT_PAID"
	BookingEventPayoutCompleted BookingEventType = "PAYOUT_COMPLETED"
)

// BookingEvent is emitted after a transition has been committed.
type BookingEvent struct {
	ID         uuid.UUID         `json:"id"`
	Type       BookingEventType  `json:"type"`
	BookingID  uuid.UUID         `json:"booking_id,omitempty"`
	ToolID     uuid.UUID         `json:"tool_id,omitempty"`
	RenterID   uuid.UUID         `json:"renter_id,omitempty"`
	OwnerID    uuid.UUID         `json:"owner_id"`
	Amount     decimal.Decimal   `json:"amount"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewBookingEvent(t BookingEventType, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:         uuid.New(),
		Type:       t,
		BookingID:  b.ID,
		ToolID:     b.ToolID,
		RenterID:   b.RenterID,
		OwnerID:    b.OwnerID,
		Amount:     b.TotalPrice,
		OccurredAt: at,
	}
}
