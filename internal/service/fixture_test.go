package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository/memory"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Result), args.Error(1)
}

func (m *MockGateway) ChargeDeposit(ctx context.Context, req gateway.DepositRequest) (*gateway.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Result), args.Error(1)
}

func (m *MockGateway) Payout(ctx context.Context, req gateway.PayoutRequest) (*gateway.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Result), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	ctx      context.Context
	store    *memory.Store
	clock    *policy.FixedClock
	gw       *MockGateway
	notifier *MockNotifier

	bookings  BookingService
	condition ConditionService
	wallet    WalletService

	owner  *domain.User
	renter *domain.User
	other  *domain.User
	tool   *domain.Tool
}

// newTestEnv starts the clock at 2024-01-01 10:00 UTC with a tool priced 10/day.
// Options adjust the dependencies before the services are built.
func newTestEnv(t *testing.T, opts ...func(*Dependencies)) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:      context.Background(),
		store:    memory.NewStore(),
		clock:    policy.NewFixedClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
		gw:       new(MockGateway),
		notifier: new(MockNotifier),
		owner:    &domain.User{ID: uuid.New(), Name: "Owner", Email: "owner@test.com"},
		renter:   &domain.User{ID: uuid.New(), Name: "Renter", Email: "renter@test.com"},
		other:    &domain.User{ID: uuid.New(), Name: "Other", Email: "other@test.com"},
	}
	env.tool = &domain.Tool{ID: uuid.New(), OwnerID: env.owner.ID, Name: "Drill", PricePerDay: money("10"), Active: true}
	env.store.AddUser(env.owner)
	env.store.AddUser(env.renter)
	env.store.AddUser(env.other)
	env.store.AddTool(env.tool)
	env.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	deps := Dependencies{
		Tx:       env.store,
		Tools:    env.store,
		Users:    env.store,
		Gateway:  env.gw,
		Notifier: env.notifier,
		Clock:    env.clock,
		Policy:   policy.Default(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.bookings = NewBookingService(deps)
	env.condition = NewConditionService(deps)
	env.wallet = NewWalletService(deps)
	return env
}

func (env *testEnv) addTool(t *testing.T, price string) *domain.Tool {
	t.Helper()
	tool := &domain.Tool{ID: uuid.New(), OwnerID: env.owner.ID, Name: "Saw", PricePerDay: money(price), Active: true}
	env.store.AddTool(tool)
	return tool
}

func (env *testEnv) create(t *testing.T, toolID uuid.UUID, start, end time.Time) *domain.Booking {
	t.Helper()
	b, err := env.bookings.CreateBooking(env.ctx, env.renter.ID, toolID, start, end)
	require.NoError(t, err)
	return b
}

func (env *testEnv) approved(t *testing.T, toolID uuid.UUID, start, end time.Time) *domain.Booking {
	t.Helper()
	b := env.create(t, toolID, start, end)
	b, err := env.bookings.ApproveBooking(env.ctx, env.owner.ID, b.ID)
	require.NoError(t, err)
	return b
}

// seedCompleted stores a paid booking whose window ended before today.
func (env *testEnv) seedCompleted(total string, created time.Time) *domain.Booking {
	b := &domain.Booking{
		ID:              uuid.New(),
		ToolID:          env.tool.ID,
		RenterID:        env.renter.ID,
		OwnerID:         env.owner.ID,
		StartDate:       created,
		EndDate:         created.AddDate(0, 0, 1),
		TotalPrice:      money(total),
		Status:          domain.BookingStatusApproved,
		PaymentStatus:   domain.PaymentStatusCompleted,
		ConditionStatus: domain.ConditionStatusUnknown,
		DepositStatus:   domain.DepositStatusNotRequired,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	env.store.PutBooking(b)
	return b
}

func gatewayResult() *gateway.Result {
	return &gateway.Result{ExternalRef: "ref-" + uuid.NewString(), ProcessedAt: time.Now()}
}
