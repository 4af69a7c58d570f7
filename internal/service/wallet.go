package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/metrics"
	"toolrent-backend/internal/repository"
)

const recentPayoutLimit = 10

type walletService struct {
	*engine
}

func NewWalletService(deps Dependencies) WalletService {
	return &walletService{engine: newEngine(deps)}
}

// balance derives the wallet from bookings and payouts as seen by repos.
func (s *walletService) balance(ctx context.Context, repos repository.Repos, ownerID uuid.UUID) (decimal.Decimal, error) {
	credits, err := repos.Bookings.SumOwnerCredits(ctx, ownerID, s.today())
	if err != nil {
		return decimal.Zero, err
	}
	debits, err := repos.Payouts.SumDebits(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return credits.Sub(debits), nil
}

func (s *walletService) GetOwnerWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	repos := s.Tx.Repos()
	bal, err := s.balance(ctx, repos, ownerID)
	if err != nil {
		return nil, err
	}
	payouts, err := repos.Payouts.ListByOwner(ctx, ownerID, recentPayoutLimit)
	if err != nil {
		return nil, err
	}
	return &domain.Wallet{OwnerID: ownerID, Balance: bal, RecentPayouts: payouts}, nil
}

func (s *walletService) MarkBookingAsPaid(ctx context.Context, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	const method = "WalletService.MarkBookingAsPaid"
	logger.EnterMethod(method, "bookingID", bookingID)
	defer func() { observe(method, "mark_paid", err) }()

	today := s.today()
	changed := false
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		// A repeated callback succeeds unchanged, even once the booking has
		// been cancelled without a refund.
		if b.PaymentStatus == domain.PaymentStatusCompleted {
			booking = b
			return nil
		}
		if b.Status != domain.BookingStatusApproved && b.Status != domain.BookingStatusCompleted {
			return domain.ErrNotPayable
		}
		booking = b
		b.PaymentStatus = domain.PaymentStatusCompleted
		b.UpdatedAt = s.now()
		changed = true
		return repos.Bookings.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, domain.NewBookingEvent(domain.BookingEventPaid, booking, booking.UpdatedAt))
	}
	return booking, nil
}

func (s *walletService) RequestPayout(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (payout *domain.Payout, err error) {
	const method = "WalletService.RequestPayout"
	logger.EnterMethod(method, "ownerID", ownerID, "amount", amount.StringFixed(2))
	defer func() { observe(method, "payout", err) }()

	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidPayout
	}

	var gatewayErr error
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, repository.OwnerLockKey(ownerID)); err != nil {
			return err
		}
		bal, err := s.balance(ctx, repos, ownerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(bal) {
			return fmt.Errorf("%w: requested %s, available %s", domain.ErrInsufficientBalance, amount.StringFixed(2), bal.StringFixed(2))
		}

		p := &domain.Payout{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Amount:      amount,
			Status:      domain.PayoutStatusPending,
			RequestedAt: s.now(),
		}
		if err := repos.Payouts.Create(ctx, p); err != nil {
			return err
		}

		res, err := s.Gateway.Payout(ctx, gateway.PayoutRequest{PayoutID: p.ID, OwnerID: ownerID, Amount: amount})
		if err != nil {
			// The FAILED row is kept for the audit trail and no longer debits the wallet.
			gatewayErr = err
			p.Status = domain.PayoutStatusFailed
			p.FailureReason = err.Error()
		} else {
			completed := s.now()
			p.Status = domain.PayoutStatusCompleted
			p.ExternalRef = res.ExternalRef
			p.CompletedAt = &completed
		}
		if err := repos.Payouts.Update(ctx, p); err != nil {
			if gatewayErr == nil {
				return unrecorded(ctx, "payout", p.ExternalRef, err)
			}
			return err
		}
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PayoutAmount.WithLabelValues(string(payout.Status)).Add(amount.InexactFloat64())
	if gatewayErr != nil {
		return payout, fmt.Errorf("payout failed: %w", gatewayErr)
	}

	s.publish(ctx, domain.BookingEvent{
		ID:         uuid.New(),
		Type:       domain.BookingEventPayoutCompleted,
		OwnerID:    ownerID,
		Amount:     amount,
		Attributes: map[string]string{"payout_id": payout.ID.String()},
		OccurredAt: *payout.CompletedAt,
	})
	return payout, nil
}

func (s *walletService) GetOwnerEarnings(ctx context.Context, ownerID uuid.UUID) (*domain.Earnings, error) {
	bookings, err := s.Tx.Repos().Bookings.ListCompletedByOwner(ctx, ownerID, s.today())
	if err != nil {
		return nil, err
	}

	type key struct{ year, month int }
	buckets := make(map[key]*domain.EarningsBucket)
	grand := decimal.Zero
	for i := range bookings {
		b := &bookings[i]
		created := b.CreatedAt.UTC()
		k := key{created.Year(), int(created.Month())}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &domain.EarningsBucket{Year: k.year, Month: k.month, Total: decimal.Zero}
			buckets[k] = bucket
		}
		bucket.Total = bucket.Total.Add(b.TotalPrice)
		bucket.BookingCount++
		grand = grand.Add(b.TotalPrice)
	}

	out := make([]domain.EarningsBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return &domain.Earnings{OwnerID: ownerID, Buckets: out, GrandTotal: grand}, nil
}
