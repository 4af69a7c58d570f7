package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/repository"
)

var errDiskFull = errors.New("disk full")

type failingBookingUpdates struct {
	repository.BookingRepository
}

func (failingBookingUpdates) Update(context.Context, *domain.Booking) error { return errDiskFull }

type failingPayoutUpdates struct {
	repository.PayoutRepository
}

func (failingPayoutUpdates) Update(context.Context, *domain.Payout) error { return errDiskFull }

// failingUpdates lets inserts through but fails every update made in a transaction.
type failingUpdates struct {
	repository.Transactor
}

func (f failingUpdates) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return f.Transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		repos.Bookings = failingBookingUpdates{repos.Bookings}
		repos.Payouts = failingPayoutUpdates{repos.Payouts}
		return fn(ctx, repos)
	})
}

func withFailingUpdates(d *Dependencies) {
	d.Tx = failingUpdates{Transactor: d.Tx}
}

func (env *testEnv) putBooking(mutate func(b *domain.Booking)) *domain.Booking {
	b := &domain.Booking{
		ID:              uuid.New(),
		ToolID:          env.tool.ID,
		RenterID:        env.renter.ID,
		OwnerID:         env.owner.ID,
		StartDate:       day(2024, 1, 20),
		EndDate:         day(2024, 1, 21),
		TotalPrice:      money("20"),
		Status:          domain.BookingStatusApproved,
		PaymentStatus:   domain.PaymentStatusCompleted,
		ConditionStatus: domain.ConditionStatusUnknown,
		DepositStatus:   domain.DepositStatusNotRequired,
		CreatedAt:       day(2024, 1, 1),
		UpdatedAt:       day(2024, 1, 1),
	}
	if mutate != nil {
		mutate(b)
	}
	env.store.PutBooking(b)
	return b
}

func TestGatewaySuccessWithFailedWrite(t *testing.T) {
	t.Run("Refund reference is reported", func(t *testing.T) {
		env := newTestEnv(t, withFailingUpdates)
		b := env.putBooking(nil)
		env.gw.On("Refund", mock.Anything, mock.Anything).Return(&gateway.Result{ExternalRef: "rf-1"}, nil).Once()

		_, err := env.bookings.CancelBooking(env.ctx, env.renter.ID, b.ID)
		assert.ErrorIs(t, err, errDiskFull)
		assert.ErrorContains(t, err, "refund rf-1 executed but not recorded")

		got, err := env.bookings.GetBooking(env.ctx, env.renter.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusApproved, got.Status)
	})

	t.Run("Deposit charge reference is reported", func(t *testing.T) {
		env := newTestEnv(t, withFailingUpdates)
		env.clock.Set(day(2024, 1, 25))
		b := env.putBooking(func(b *domain.Booking) {
			b.ConditionStatus = domain.ConditionStatusBroken
			b.DepositStatus = domain.DepositStatusRequired
			b.DepositAmount = money("50")
		})
		env.gw.On("ChargeDeposit", mock.Anything, mock.Anything).Return(&gateway.Result{ExternalRef: "dep-1"}, nil).Once()

		_, err := env.condition.PayDeposit(env.ctx, b.ID)
		assert.ErrorContains(t, err, "deposit charge dep-1 executed but not recorded")
	})

	t.Run("Payout reference is reported and nothing is debited", func(t *testing.T) {
		env := newTestEnv(t, withFailingUpdates)
		env.clock.Set(day(2024, 3, 10))
		env.seedCompleted("30", day(2024, 2, 1))
		env.gw.On("Payout", mock.Anything, mock.Anything).Return(&gateway.Result{ExternalRef: "tr-9"}, nil).Once()

		_, err := env.wallet.RequestPayout(env.ctx, env.owner.ID, money("20"))
		assert.ErrorIs(t, err, errDiskFull)
		assert.ErrorContains(t, err, "payout tr-9 executed but not recorded")

		w, err := env.wallet.GetOwnerWallet(env.ctx, env.owner.ID)
		require.NoError(t, err)
		assert.True(t, money("30").Equal(w.Balance))
		assert.Empty(t, w.RecentPayouts)
	})
}
