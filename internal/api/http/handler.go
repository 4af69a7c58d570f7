// Package http exposes the booking engine over JSON/HTTP.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/service"
)

// CallerHeader carries the acting user id. Authentication happens upstream.
const CallerHeader = "X-User-ID"

type Handler struct {
	bookings  service.BookingService
	condition service.ConditionService
	wallet    service.WalletService
	validate  *validator.Validate
}

func NewHandler(bookings service.BookingService, condition service.ConditionService, wallet service.WalletService) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{bookings: bookings, condition: condition, wallet: wallet, validate: v}
}

func caller(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing %s header", domain.ErrInvalidInput, CallerHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed %s header", domain.ErrInvalidInput, CallerHeader)
	}
	return id, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed booking id", domain.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	respondJSON(w, code, errorResponse{Error: msg, Kind: domain.KindOf(err)})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	renterID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createBookingRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), renterID, uuid.MustParse(req.ToolID), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/bookings/"+booking.ID.String())
	respondJSON(w, http.StatusCreated, booking)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	booking, err := h.bookings.GetBooking(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *Handler) GetBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, err := h.bookings.GetBookingStatus(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{BookingID: id.String(), Status: status})
}

// bookingAction adapts the (caller, booking id) operations to a handler.
func (h *Handler) bookingAction(fn func(r *http.Request, userID, bookingID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := caller(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		out, err := fn(r, userID, id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func (h *Handler) ApproveBooking(r *http.Request, userID, bookingID uuid.UUID) (any, error) {
	return h.bookings.ApproveBooking(r.Context(), userID, bookingID)
}

func (h *Handler) RejectBooking(r *http.Request, userID, bookingID uuid.UUID) (any, error) {
	return h.bookings.RejectBooking(r.Context(), userID, bookingID)
}

func (h *Handler) CancelBooking(r *http.Request, userID, bookingID uuid.UUID) (any, error) {
	return h.bookings.CancelBooking(r.Context(), userID, bookingID)
}

// MarkBookingAsPaid is the payment gateway callback.
func (h *Handler) MarkBookingAsPaid(r *http.Request, _, bookingID uuid.UUID) (any, error) {
	return h.wallet.MarkBookingAsPaid(r.Context(), bookingID)
}

func (h *Handler) PayDeposit(r *http.Request, _, bookingID uuid.UUID) (any, error) {
	return h.condition.PayDeposit(r.Context(), bookingID)
}

func (h *Handler) SubmitConditionReport(r *http.Request, userID, bookingID uuid.UUID) (any, error) {
	var req conditionReportRequest
	if err := h.decode(r, &req); err != nil {
		return nil, err
	}
	return h.condition.SubmitConditionReport(r.Context(), bookingID, userID, domain.ConditionStatus(req.Condition), req.Description)
}

func listParams(r *http.Request) ([]domain.BookingStatus, int32, int32, error) {
	q := r.URL.Query()
	var statuses []domain.BookingStatus
	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			st := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !st.Valid() {
				return nil, 0, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
			}
			statuses = append(statuses, st)
		}
	}
	page, pageSize := int32(1), int32(20)
	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return nil, 0, 0, fmt.Errorf("%w: page must be a positive integer", domain.ErrInvalidInput)
		}
		page = int32(n)
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 || n > 100 {
			return nil, 0, 0, fmt.Errorf("%w: page_size must be between 1 and 100", domain.ErrInvalidInput)
		}
		pageSize = int32(n)
	}
	return statuses, page, pageSize, nil
}

type lister func(r *http.Request, userID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error)

func (h *Handler) list(fn lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := caller(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		statuses, page, pageSize, err := listParams(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		bookings, total, err := fn(r, userID, statuses, page, pageSize)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if bookings == nil {
			bookings = []domain.Booking{}
		}
		respondJSON(w, http.StatusOK, listResponse{Bookings: bookings, Total: total, Page: page, PageSize: pageSize})
	}
}

func (h *Handler) ListRentals(r *http.Request, userID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error) {
	return h.bookings.ListRentals(r.Context(), userID, statuses, page, pageSize)
}

func (h *Handler) ListLendings(r *http.Request, userID uuid.UUID, statuses []domain.BookingStatus, page, pageSize int32) ([]domain.Booking, int32, error) {
	return h.bookings.ListLendings(r.Context(), userID, statuses, page, pageSize)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ownerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	wallet, err := h.wallet.GetOwnerWallet(r.Context(), ownerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}

func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	earnings, err := h.wallet.GetOwnerEarnings(r.Context(), ownerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, earnings)
}

func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	ownerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req payoutRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	amount, err := req.decimal()
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidPayout, err))
		return
	}
	payout, err := h.wallet.RequestPayout(r.Context(), ownerID, amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, payout)
}
