// Package gateway is the narrow boundary to the external payment processor.
// Calls are blocking and never retried here; retries belong to the processor.
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/logger"
)

type RefundRequest struct {
	BookingID uuid.UUID
	RenterID  uuid.UUID
	Amount    decimal.Decimal
	Reason    string
}

type DepositRequest struct {
	BookingID uuid.UUID
	RenterID  uuid.UUID
	Amount    decimal.Decimal
}

type PayoutRequest struct {
	PayoutID uuid.UUID
	OwnerID  uuid.UUID
	Amount   decimal.Decimal
}

type Result struct {
	ExternalRef string
	ProcessedAt time.Time
}

type PaymentGateway interface {
	Refund(ctx context.Context, req RefundRequest) (*Result, error)
	ChargeDeposit(ctx context.Context, req DepositRequest) (*Result, error)
	Payout(ctx context.Context, req PayoutRequest) (*Result, error)
}

// ManualGateway records each movement and returns a reference for
// back-office settlement. No money moves.
type ManualGateway struct{}

func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

func (g *ManualGateway) Refund(ctx context.Context, req RefundRequest) (*Result, error) {
	return g.record(ctx, "Refund", "bookingID", req.BookingID, "amount", req.Amount.StringFixed(2))
}

func (g *ManualGateway) ChargeDeposit(ctx context.Context, req DepositRequest) (*Result, error) {
	return g.record(ctx, "ChargeDeposit", "bookingID", req.BookingID, "amount", req.Amount.StringFixed(2))
}

func (g *ManualGateway) Payout(ctx context.Context, req PayoutRequest) (*Result, error) {
	return g.record(ctx, "Payout", "payoutID", req.PayoutID, "amount", req.Amount.StringFixed(2))
}

func (g *ManualGateway) record(ctx context.Context, op string, args ...any) (*Result, error) {
	logger.ExternalServiceCall("manual-gateway", op, args...)
	if err := ctx.Err(); err != nil {
		logger.ExternalServiceResult("manual-gateway", op, err, args...)
		return nil, err
	}
	res := &Result{ExternalRef: "manual-" + uuid.NewString(), ProcessedAt: time.Now()}
	logger.ExternalServiceResult("manual-gateway", op, nil, append(args, "ref", res.ExternalRef)...)
	return res, nil
}
