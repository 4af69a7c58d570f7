package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/metrics"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository"
	"toolrent-backend/internal/utils"
)

type bookingService struct {
	*engine
}

func NewBookingService(deps Dependencies) BookingService {
	return &bookingService{engine: newEngine(deps)}
}

func observe(method, operation string, err error) {
	metrics.BookingTransitions.WithLabelValues(operation, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return
	}
	logger.ExitMethod(method)
}

func (s *bookingService) CreateBooking(ctx context.Context, renterID, toolID uuid.UUID, start, end time.Time) (booking *domain.Booking, err error) {
	const method = "BookingService.CreateBooking"
	logger.EnterMethod(method, "renterID", renterID, "toolID", toolID, "start", utils.FormatDate(start), "end", utils.FormatDate(end))
	defer func() { observe(method, "create", err) }()

	// Dates are taken in the zone the caller expressed them in.
	start = utils.TruncateToDay(start, start.Location())
	end = utils.TruncateToDay(end, end.Location())
	today := s.today()
	if start.After(end) {
		return nil, domain.ErrInvalidDateRange
	}
	if start.Before(today) {
		return nil, domain.ErrDateInPast
	}

	tool, err := s.Tools.GetTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: tool %s has no owner", domain.ErrInvalidInput, toolID)
	}
	if tool.OwnerID == renterID {
		return nil, domain.ErrOwnTool
	}
	renter, err := s.Users.GetUser(ctx, renterID)
	if err != nil {
		return nil, err
	}

	// The discount is captured once; later subscription changes never reprice.
	total, err := utils.CalculateBookingPrice(start, end, tool.PricePerDay, renter.SubscriptionDiscountPercent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	now := s.now()
	booking = &domain.Booking{
		ID:              uuid.New(),
		ToolID:          tool.ID,
		RenterID:        renterID,
		OwnerID:         tool.OwnerID,
		StartDate:       start,
		EndDate:         end,
		TotalPrice:      total,
		DepositAmount:   decimal.Zero,
		RefundAmount:    decimal.Zero,
		CancellationFee: decimal.Zero,
		Status:          domain.BookingStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		ConditionStatus: domain.ConditionStatusUnknown,
		DepositStatus:   domain.DepositStatusNotRequired,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, repository.ToolLockKey(tool.ID)); err != nil {
			return err
		}
		conflict, err := s.overlap.HasApprovedConflict(ctx, repos.Bookings, tool.ID, start, end, nil)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrApprovedOverlap
		}
		return repos.Bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewBookingEvent(domain.BookingEventRequested, booking, now))
	return booking, nil
}

func (s *bookingService) ApproveBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	const method = "BookingService.ApproveBooking"
	logger.EnterMethod(method, "ownerID", ownerID, "bookingID", bookingID)
	defer func() { observe(method, "approve", err) }()

	// The tool id is needed for the lock before the row is locked.
	current, err := s.Tx.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, repository.ToolLockKey(current.ToolID)); err != nil {
			return err
		}
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return domain.ErrNotBookingOwner
		}
		if b.Status != domain.BookingStatusPending {
			return domain.ErrBookingNotPending
		}
		if b.EndDate.Before(today) {
			return domain.ErrWindowEnded
		}
		conflict, err := s.overlap.HasApprovedConflict(ctx, repos.Bookings, b.ToolID, b.StartDate, b.EndDate, &b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrApprovedOverlap
		}
		b.Status = domain.BookingStatusApproved
		b.UpdatedAt = s.now()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A window that starts later leaves the tool available; the availability
	// job flips it when the window opens.
	if booking.Covers(today) {
		if err := s.Tools.SetToolActive(ctx, booking.ToolID, false); err != nil {
			logger.WarnContext(ctx, "Failed to mark tool unavailable", "toolID", booking.ToolID, "error", err)
		}
	}

	s.publish(ctx, domain.NewBookingEvent(domain.BookingEventApproved, booking, booking.UpdatedAt))
	return booking, nil
}

func (s *bookingService) RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	const method = "BookingService.RejectBooking"
	logger.EnterMethod(method, "ownerID", ownerID, "bookingID", bookingID)
	defer func() { observe(method, "reject", err) }()

	today := s.today()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return domain.ErrNotBookingOwner
		}
		if b.Status != domain.BookingStatusPending {
			return domain.ErrBookingNotPending
		}
		b.Status = domain.BookingStatusRejected
		b.UpdatedAt = s.now()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewBookingEvent(domain.BookingEventRejected, booking, booking.UpdatedAt))
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) (result *domain.CancellationResult, err error) {
	const method = "BookingService.CancelBooking"
	logger.EnterMethod(method, "userID", userID, "bookingID", bookingID)
	defer func() { observe(method, "cancel", err) }()

	today := s.today()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		if !b.IsParty(userID) {
			return domain.ErrNotBookingParty
		}

		refundRef := ""
		res := &domain.CancellationResult{
			RefundAmount: decimal.Zero,
			OwnerCredit:  decimal.Zero,
		}
		switch b.Status {
		case domain.BookingStatusPending:
			res.RefundPercentage = 100
		case domain.BookingStatusApproved:
			if b.PaymentStatus != domain.PaymentStatusCompleted {
				res.RefundPercentage = policy.RefundPercentage(today, b.StartDate, s.Policy.RefundTiers)
				break
			}
			refund := policy.CalculateRefund(b.TotalPrice, today, b.StartDate, s.Policy.RefundTiers)
			res.RefundPercentage = refund.Percentage
			res.RefundAmount = refund.RefundAmount
			res.OwnerCredit = refund.OwnerCredit
			if refund.RefundAmount.IsPositive() {
				gw, err := s.Gateway.Refund(ctx, gateway.RefundRequest{
					BookingID: b.ID,
					RenterID:  b.RenterID,
					Amount:    refund.RefundAmount,
					Reason:    "booking cancelled",
				})
				if err != nil {
					return fmt.Errorf("refund failed: %w", err)
				}
				if gw != nil {
					refundRef = gw.ExternalRef
				}
				b.PaymentStatus = domain.PaymentStatusRefunded
			}
			b.RefundAmount = refund.RefundAmount
			b.CancellationFee = refund.OwnerCredit
		case domain.BookingStatusCancelled:
			return domain.ErrAlreadyCancelled
		default:
			return domain.ErrNotCancellable
		}

		cancelledBy := userID
		b.Status = domain.BookingStatusCancelled
		b.CancelledBy = &cancelledBy
		b.UpdatedAt = s.now()
		if err := repos.Bookings.Update(ctx, b); err != nil {
			if refundRef != "" {
				return unrecorded(ctx, "refund", refundRef, err)
			}
			return err
		}
		res.Booking = b
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.RefundAmount.IsPositive() {
		metrics.RefundedAmount.Add(result.RefundAmount.InexactFloat64())
	}
	ev := domain.NewBookingEvent(domain.BookingEventCancelled, result.Booking, result.Booking.UpdatedAt)
	ev.Attributes = map[string]string{
		"cancelled_by":      userID.String(),
		"refund_percentage": strconv.Itoa(result.RefundPercentage),
		"refund_amount":     result.RefundAmount.StringFixed(2),
		"owner_credit":      result.OwnerCredit.StringFixed(2),
	}
	s.publish(ctx, ev)
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.Tx.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, domain.ErrNotBookingParty
	}
	b.Settle(s.today())
	return b, nil
}

func (s *bookingService) GetBookingStatus(ctx context.Context, bookingID uuid.UUID) (domain.BookingStatus, error) {
	b, err := s.Tx.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return domain.EffectiveStatus(b, s.today()), nil
}

func (s *bookingService) ListRentals(ctx context.Context, renterID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error) {
	today := s.today()
	bookings, total, err := s.Tx.Repos().Bookings.ListByRenter(ctx, renterID, repository.BookingFilter{
		Statuses: statuses, Today: today, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return settleAll(bookings, today), total, nil
}

func (s *bookingService) ListLendings(ctx context.Context, ownerID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error) {
	today := s.today()
	bookings, total, err := s.Tx.Repos().Bookings.ListByOwner(ctx, ownerID, repository.BookingFilter{
		Statuses: statuses, Today: today, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return settleAll(bookings, today), total, nil
}

func settleAll(bookings []domain.Booking, today time.Time) []domain.Booking {
	for i := range bookings {
		bookings[i].Settle(today)
	}
	return bookings
}
