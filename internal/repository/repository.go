package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
)

// BookingFilter narrows booking listings. Zero values match everything.
// Statuses are matched against the effective status as of Today.
type BookingFilter struct {
	Statuses []domain.BookingStatus
	Today    time.Time
	Page     int32
	PageSize int32
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// GetForUpdate reads the booking and holds its row lock until the unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error

	// ListByToolInRange returns bookings of toolID whose inclusive window
	// intersects [start, end] and whose stored status is one of statuses.
	ListByToolInRange(ctx context.Context, toolID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error)
	// ListApprovedCovering returns APPROVED bookings whose window intersects [start, end] across all tools.
	ListApprovedCovering(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID, filter BookingFilter) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter BookingFilter) ([]domain.Booking, int32, error)
	// ListCompletedByOwner returns bookings that are COMPLETED or APPROVED with end date before today.
	ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, today time.Time) ([]domain.Booking, error)

	// SumOwnerCredits totals paid completed bookings plus cancellation fees for ownerID.
	SumOwnerCredits(ctx context.Context, ownerID uuid.UUID, today time.Time) (decimal.Decimal, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, p *domain.Payout) error
	Update(ctx context.Context, p *domain.Payout) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]domain.Payout, error)
	// SumDebits totals PENDING and COMPLETED payouts of ownerID.
	SumDebits(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)
}

// Locker serialises units of work on a resource key until the unit of work ends.
type Locker interface {
	Lock(ctx context.Context, key string) error
}

func ToolLockKey(id uuid.UUID) string  { return "tool:" + id.String() }
func OwnerLockKey(id uuid.UUID) string { return "owner:" + id.String() }

// Repos is the set of repositories bound to one unit of work.
type Repos struct {
	Bookings BookingRepository
	Payouts  PayoutRepository
	Locks    Locker
}

// Transactor runs fn as a single all-or-nothing unit of work. Any error
// returned by fn (or a panic) discards every write made through repos.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	// Repos returns repositories outside any unit of work, for reads.
	Repos() Repos
}

// ToolCatalog is the external tool catalog.
type ToolCatalog interface {
	GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error)
	SetToolActive(ctx context.Context, id uuid.UUID, active bool) error
}

// UserDirectory is the external user directory.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
