package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
)

type conditionService struct {
	*engine
}

func NewConditionService(deps Dependencies) ConditionService {
	return &conditionService{engine: newEngine(deps)}
}

func (s *conditionService) SubmitConditionReport(ctx context.Context, bookingID, renterID uuid.UUID, condition domain.ConditionStatus, description string) (booking *domain.Booking, err error) {
	const method = "ConditionService.SubmitConditionReport"
	logger.EnterMethod(method, "bookingID", bookingID, "renterID", renterID, "condition", condition)
	defer func() { observe(method, "condition_report", err) }()

	if condition != domain.ConditionStatusOK && condition != domain.ConditionStatusBroken {
		return nil, fmt.Errorf("%w: condition must be OK or BROKEN", domain.ErrInvalidInput)
	}

	today := s.today()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		if b.RenterID != renterID {
			return domain.ErrNotRenter
		}
		if b.Status != domain.BookingStatusCompleted {
			return domain.ErrNotCompleted
		}
		if b.ConditionStatus != domain.ConditionStatusUnknown && b.ConditionStatus != "" {
			return domain.ErrConditionAlreadyReported
		}

		now := s.now()
		b.ConditionStatus = condition
		b.ConditionNote = description
		b.ConditionReportedAt = &now
		if condition == domain.ConditionStatusBroken {
			b.DepositStatus = domain.DepositStatusRequired
			b.DepositAmount = s.Policy.DepositAmount
		} else {
			b.DepositStatus = domain.DepositStatusNotRequired
			b.DepositAmount = decimal.Zero
		}
		b.UpdatedAt = now
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := domain.NewBookingEvent(domain.BookingEventConditionReport, booking, booking.UpdatedAt)
	ev.Amount = booking.DepositAmount
	ev.Attributes = map[string]string{"condition": string(condition)}
	s.publish(ctx, ev)
	return booking, nil
}

func (s *conditionService) PayDeposit(ctx context.Context, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	const method = "ConditionService.PayDeposit"
	logger.EnterMethod(method, "bookingID", bookingID)
	defer func() { observe(method, "pay_deposit", err) }()

	today := s.today()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadForUpdate(ctx, repos, bookingID, today)
		if err != nil {
			return err
		}
		// NOT_REQUIRED and PAID are both refused; a second payment is an error.
		if b.DepositStatus != domain.DepositStatusRequired {
			return domain.ErrDepositNotRequired
		}
		charge, err := s.Gateway.ChargeDeposit(ctx, gateway.DepositRequest{
			BookingID: b.ID,
			RenterID:  b.RenterID,
			Amount:    b.DepositAmount,
		})
		if err != nil {
			return fmt.Errorf("deposit charge failed: %w", err)
		}

		now := s.now()
		b.DepositStatus = domain.DepositStatusPaid
		b.DepositPaidAt = &now
		b.UpdatedAt = now
		if err := repos.Bookings.Update(ctx, b); err != nil {
			if charge != nil {
				return unrecorded(ctx, "deposit charge", charge.ExternalRef, err)
			}
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := domain.NewBookingEvent(domain.BookingEventDepositPaid, booking, booking.UpdatedAt)
	ev.Amount = booking.DepositAmount
	s.publish(ctx, ev)
	return booking, nil
}
