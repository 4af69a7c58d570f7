package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// IsTerminal reports whether no further lifecycle transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled || s == BookingStatusCompleted
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type ConditionStatus string

const (
	ConditionStatusUnknown ConditionStatus = "UNKNOWN"
	ConditionStatusOK      ConditionStatus = "OK"
	ConditionStatusBroken  ConditionStatus = "BROKEN"
)

type DepositStatus string

const (
	DepositStatusNotRequired DepositStatus = "NOT_REQUIRED"
	DepositStatusRequired    DepositStatus = "REQUIRED"
	DepositStatusPaid        DepositStatus = "PAID"
)

type Booking struct {
	ID       uuid.UUID `json:"id"`
	ToolID   uuid.UUID `json:"tool_id"`
	RenterID uuid.UUID `json:"renter_id"`
	// OwnerID is a snapshot of the tool owner at creation time.
	OwnerID uuid.UUID `json:"owner_id"`

	// Inclusive whole days, midnight UTC.
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	TotalPrice      decimal.Decimal `json:"total_price"`
	DepositAmount   decimal.Decimal `json:"deposit_amount"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`

	Status          BookingStatus   `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	ConditionStatus ConditionStatus `json:"condition_status"`
	ConditionNote   string          `json:"condition_note,omitempty"`
	DepositStatus   DepositStatus   `json:"deposit_status"`
	CancelledBy     *uuid.UUID      `json:"cancelled_by,omitempty"`

	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	ConditionReportedAt *time.Time `json:"condition_reported_at,omitempty"`
	DepositPaidAt       *time.Time `json:"deposit_paid_at,omitempty"`
}

// Covers reports whether day falls inside [StartDate, EndDate].
func (b *Booking) Covers(day time.Time) bool {
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

// EffectiveStatus applies the lazy completion rule: an APPROVED booking whose
// end date is strictly before today is COMPLETED.
func EffectiveStatus(b *Booking, today time.Time) BookingStatus {
	if b.Status == BookingStatusApproved && b.EndDate.Before(today) {
		return BookingStatusCompleted
	}
	return b.Status
}

// Settle rewrites Status with the effective status and reports whether it changed.
func (b *Booking) Settle(today time.Time) bool {
	eff := EffectiveStatus(b, today)
	if eff == b.Status {
		return false
	}
	b.Status = eff
	return true
}

func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.RenterID == userID || b.OwnerID == userID
}

func (b *Booking) Clone() *Booking {
	c := *b
	if b.CancelledBy != nil {
		id := *b.CancelledBy
		c.CancelledBy = &id
	}
	if b.ConditionReportedAt != nil {
		t := *b.ConditionReportedAt
		c.ConditionReportedAt = &t
	}
	if b.DepositPaidAt != nil {
		t := *b.DepositPaidAt
		c.DepositPaidAt = &t
	}
	return &c
}

// CancellationResult describes the money movements of a cancellation.
type CancellationResult struct {
	Booking          *Booking        `json:"booking"`
	RefundPercentage int             `json:"refund_percentage"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	OwnerCredit      decimal.Decimal `json:"owner_credit"`
}
