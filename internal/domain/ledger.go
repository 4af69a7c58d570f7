package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
)

// Payout is an owner withdrawal. PENDING and COMPLETED payouts debit the wallet.
type Payout struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PayoutStatus    `json:"status"`
	ExternalRef   string          `json:"external_ref,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	RequestedAt   time.Time       `json:"requested_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// Wallet is computed on read from bookings and payouts; it is never stored.
type Wallet struct {
	OwnerID       uuid.UUID       `json:"owner_id"`
	Balance       decimal.Decimal `json:"balance"`
	RecentPayouts []Payout        `json:"recent_payouts"`
}

type EarningsBucket struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Total        decimal.Decimal `json:"total"`
	BookingCount int             `json:"booking_count"`
}

type Earnings struct {
	OwnerID    uuid.UUID        `json:"owner_id"`
	Buckets    []EarningsBucket `json:"buckets"`
	GrandTotal decimal.Decimal  `json:"grand_total"`
}
