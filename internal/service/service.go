package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository"
)

type BookingService interface {
	CreateBooking(ctx context.Context, renterID, toolID uuid.UUID, start, end time.Time) (*domain.Booking, error)
	ApproveBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.CancellationResult, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error)
	// GetBookingStatus is the read-only query used by the review subsystem.
	GetBookingStatus(ctx context.Context, bookingID uuid.UUID) (domain.BookingStatus, error)
	ListRentals(ctx context.Context, renterID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error)
	ListLendings(ctx context.Context, ownerID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error)
}

type ConditionService interface {
	SubmitConditionReport(ctx context.Context, bookingID, renterID uuid.UUID, condition domain.ConditionStatus, description string) (*domain.Booking, error)
	PayDeposit(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
}

type WalletService interface {
	GetOwnerWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	MarkBookingAsPaid(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	RequestPayout(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (*domain.Payout, error)
	GetOwnerEarnings(ctx context.Context, ownerID uuid.UUID) (*domain.Earnings, error)
}

// Notifier receives events after the transition that produced them has committed.
type Notifier interface {
	Notify(ctx context.Context, event domain.BookingEvent) error
}

// Dependencies are shared by every service of the engine.
type Dependencies struct {
	Tx       repository.Transactor
	Tools    repository.ToolCatalog
	Users    repository.UserDirectory
	Gateway  gateway.PaymentGateway
	Notifier Notifier
	Clock    policy.Clock
	Policy   policy.Policy
}

type engine struct {
	Dependencies
	overlap *OverlapResolver
}

func newEngine(deps Dependencies) *engine {
	if deps.Clock == nil {
		deps.Clock = policy.SystemClock{}
	}
	if deps.Policy.Location == nil {
		deps.Policy = policy.Default()
	}
	if deps.Gateway == nil {
		deps.Gateway = gateway.NewManualGateway()
	}
	return &engine{Dependencies: deps, overlap: NewOverlapResolver()}
}

func (e *engine) today() time.Time {
	return policy.Today(e.Clock, e.Policy.Location)
}

func (e *engine) now() time.Time {
	return e.Clock.Now().UTC()
}

// publish hands events to the notifier. Delivery failures never affect the
// already committed transition.
func (e *engine) publish(ctx context.Context, events ...domain.BookingEvent) {
	if e.Notifier == nil {
		return
	}
	for _, ev := range events {
		if err := e.Notifier.Notify(ctx, ev); err != nil {
			logger.WarnContext(ctx, "Failed to deliver booking event", "type", ev.Type, "bookingID", ev.BookingID, "error", err)
		}
	}
}

// unrecorded reports money that moved at the gateway while the local write
// failed. The transaction rolls back, so the external reference is the only
// trace left for reconciliation.
func unrecorded(ctx context.Context, operation, externalRef string, err error) error {
	logger.ErrorContext(ctx, "Gateway operation executed but not recorded",
		"operation", operation, "externalRef", externalRef, "error", err)
	return fmt.Errorf("%s %s executed but not recorded: %w", operation, externalRef, err)
}

// loadForUpdate locks the booking row and applies the lazy completion rule.
func loadForUpdate(ctx context.Context, repos repository.Repos, id uuid.UUID, today time.Time) (*domain.Booking, error) {
	b, err := repos.Bookings.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Settle(today)
	return b, nil
}
