// Package memory is an in-process implementation of the repository
// interfaces. Units of work are serialised by a single mutex and applied
// copy-on-commit, so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type state struct {
	bookings map[uuid.UUID]*domain.Booking
	payouts  map[uuid.UUID]*domain.Payout
}

func newState() *state {
	return &state{
		bookings: make(map[uuid.UUID]*domain.Booking),
		payouts:  make(map[uuid.UUID]*domain.Payout),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, b := range s.bookings {
		c.bookings[id] = b.Clone()
	}
	for id, p := range s.payouts {
		cp := *p
		c.payouts[id] = &cp
	}
	return c
}

type Store struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	committed *state

	catalogMu sync.RWMutex
	tools     map[uuid.UUID]*domain.Tool
	users     map[uuid.UUID]*domain.User
}

func NewStore() *Store {
	return &Store{
		committed: newState(),
		tools:     make(map[uuid.UUID]*domain.Tool),
		users:     make(map[uuid.UUID]*domain.User),
	}
}

func (s *Store) Repos() repository.Repos {
	return s.reposFor(s.committed, &s.mu)
}

func (s *Store) reposFor(st *state, mu *sync.RWMutex) repository.Repos {
	return repository.Repos{
		Bookings: &bookingRepository{st: st, mu: mu},
		Payouts:  &payoutRepository{st: st, mu: mu},
		Locks:    noopLocker{},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.reposFor(working, &sync.RWMutex{})); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed.bookings = working.bookings
	s.committed.payouts = working.payouts
	s.mu.Unlock()
	return nil
}

// noopLocker relies on WithinTx serialising every unit of work.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string) error { return ctx.Err() }

// PutBooking stores b as-is. Intended for seeding.
func (s *Store) PutBooking(b *domain.Booking) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	s.committed.bookings[b.ID] = b.Clone()
	s.mu.Unlock()
}

// AddTool registers a tool in the in-memory catalog.
func (s *Store) AddTool(t *domain.Tool) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	cp := *t
	s.tools[t.ID] = &cp
}

func (s *Store) AddUser(u *domain.User) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *Store) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	t, ok := s.tools[id]
	if !ok {
		return nil, domain.ErrToolNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) SetToolActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	t, ok := s.tools[id]
	if !ok {
		return domain.ErrToolNotFound
	}
	t.Active = active
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type bookingRepository struct {
	st *state
	mu *sync.RWMutex
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.bookings[b.ID] = b.Clone()
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.st.bookings[b.ID] = b.Clone()
	return nil
}

func hasStatus(s domain.BookingStatus, statuses []domain.BookingStatus) bool {
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func (r *bookingRepository) selectBookings(match func(b *domain.Booking) bool) []domain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Booking
	for _, b := range r.st.bookings {
		if match(b) {
			out = append(out, *b.Clone())
		}
	}
	return out
}

func (r *bookingRepository) ListByToolInRange(ctx context.Context, toolID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	out := r.selectBookings(func(b *domain.Booking) bool {
		return b.ToolID == toolID && !b.StartDate.After(end) && !b.EndDate.Before(start) && hasStatus(b.Status, statuses)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *bookingRepository) ListApprovedCovering(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	out := r.selectBookings(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusApproved && !b.StartDate.After(end) && !b.EndDate.Before(start)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ToolID != out[j].ToolID {
			return out[i].ToolID.String() < out[j].ToolID.String()
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	return r.listByParty(func(b *domain.Booking) bool { return b.RenterID == renterID }, filter)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	return r.listByParty(func(b *domain.Booking) bool { return b.OwnerID == ownerID }, filter)
}

func (r *bookingRepository) listByParty(party func(b *domain.Booking) bool, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	out := r.selectBookings(func(b *domain.Booking) bool {
		if !party(b) {
			return false
		}
		return len(filter.Statuses) == 0 || hasStatus(domain.EffectiveStatus(b, filter.Today), filter.Statuses)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int32(len(out))
	from := (page - 1) * pageSize
	if from >= total {
		return nil, total, nil
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return out[from:to], total, nil
}

func (r *bookingRepository) ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, today time.Time) ([]domain.Booking, error) {
	out := r.selectBookings(func(b *domain.Booking) bool {
		return b.OwnerID == ownerID && domain.EffectiveStatus(b, today) == domain.BookingStatusCompleted
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *bookingRepository) SumOwnerCredits(ctx context.Context, ownerID uuid.UUID, today time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, b := range r.st.bookings {
		if b.OwnerID != ownerID {
			continue
		}
		switch {
		case b.Status == domain.BookingStatusCancelled:
			sum = sum.Add(b.CancellationFee)
		case b.PaymentStatus == domain.PaymentStatusCompleted && domain.EffectiveStatus(b, today) == domain.BookingStatusCompleted:
			sum = sum.Add(b.TotalPrice)
		}
	}
	return sum, nil
}

type payoutRepository struct {
	st *state
	mu *sync.RWMutex
}

func (r *payoutRepository) Create(ctx context.Context, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.st.payouts[p.ID] = &cp
	return nil
}

func (r *payoutRepository) Update(ctx context.Context, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.payouts[p.ID]; !ok {
		return domain.ErrPayoutNotFound
	}
	cp := *p
	r.st.payouts[p.ID] = &cp
	return nil
}

func (r *payoutRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]domain.Payout, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	var out []domain.Payout
	for _, p := range r.st.payouts {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *payoutRepository) SumDebits(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, p := range r.st.payouts {
		if p.OwnerID == ownerID && p.Status != domain.PayoutStatusFailed {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}
