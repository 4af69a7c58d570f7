package http

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/utils"
)

type createBookingRequest struct {
	ToolID    string `json:"tool_id" validate:"required,uuid"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r createBookingRequest) dates() (time.Time, time.Time, error) {
	start, err := utils.ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := utils.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type conditionReportRequest struct {
	Condition   string `json:"condition" validate:"required,oneof=OK BROKEN"`
	Description string `json:"description" validate:"max=2000"`
}

type payoutRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

func (r payoutRequest) decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Amount)
}

type listResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int32            `json:"total"`
	Page     int32            `json:"page"`
	PageSize int32            `json:"page_size"`
}

type statusResponse struct {
	BookingID string               `json:"booking_id"`
	Status    domain.BookingStatus `json:"status"`
}

// validationError flattens validator output into one InvalidInput error.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: field %s failed %s", domain.ErrInvalidInput, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
