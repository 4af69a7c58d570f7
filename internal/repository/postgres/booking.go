package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
	"toolrent-backend/internal/utils"
)

const bookingColumns = `id, tool_id, renter_id, owner_id, start_date, end_date,
	total_price, deposit_amount, refund_amount, cancellation_fee,
	status, payment_status, condition_status, COALESCE(condition_note, ''), deposit_status, cancelled_by,
	created_at, updated_at, condition_reported_at, deposit_paid_at`

// effectiveStatusSQL mirrors domain.EffectiveStatus; $today must be bound by the caller.
const effectiveStatusSQL = `CASE WHEN status = 'APPROVED' AND end_date < %s THEN 'COMPLETED' ELSE status END`

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var cancelledBy uuid.NullUUID
	var conditionReportedAt, depositPaidAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.ToolID, &b.RenterID, &b.OwnerID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.DepositAmount, &b.RefundAmount, &b.CancellationFee,
		&b.Status, &b.PaymentStatus, &b.ConditionStatus, &b.ConditionNote, &b.DepositStatus, &cancelledBy,
		&b.CreatedAt, &b.UpdatedAt, &conditionReportedAt, &depositPaidAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartDate = utils.TruncateToDay(b.StartDate, time.UTC)
	b.EndDate = utils.TruncateToDay(b.EndDate, time.UTC)
	if cancelledBy.Valid {
		id := cancelledBy.UUID
		b.CancelledBy = &id
	}
	if conditionReportedAt.Valid {
		t := conditionReportedAt.Time
		b.ConditionReportedAt = &t
	}
	if depositPaidAt.Valid {
		t := depositPaidAt.Time
		b.DepositPaidAt = &t
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "toolID", b.ToolID, "renterID", b.RenterID)

	query := `
		INSERT INTO bookings (
			id, tool_id, renter_id, owner_id, start_date, end_date,
			total_price, deposit_amount, refund_amount, cancellation_fee,
			status, payment_status, condition_status, deposit_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.ToolID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate,
		b.TotalPrice, b.DepositAmount, b.RefundAmount, b.CancellationFee,
		b.Status, b.PaymentStatus, b.ConditionStatus, b.DepositStatus, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "bookingID", b.ID)
		return classify(err, "failed to insert booking")
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Booking, error) {
	logger.DatabaseCall("bookings.get", query, "bookingID", id)
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("bookings.get", 0, nil, "bookingID", id)
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		logger.DatabaseResult("bookings.get", 0, err, "bookingID", id)
		return nil, err
	}
	logger.DatabaseResult("bookings.get", 1, nil, "bookingID", id)
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Update", "bookingID", b.ID, "status", b.Status)

	query := `
		UPDATE bookings SET
			deposit_amount = $1,
			refund_amount = $2,
			cancellation_fee = $3,
			status = $4,
			payment_status = $5,
			condition_status = $6,
			condition_note = $7,
			deposit_status = $8,
			cancelled_by = $9,
			condition_reported_at = $10,
			deposit_paid_at = $11,
			updated_at = $12
		WHERE id = $13
	`
	res, err := r.db.ExecContext(ctx, query,
		b.DepositAmount, b.RefundAmount, b.CancellationFee,
		b.Status, b.PaymentStatus, b.ConditionStatus, b.ConditionNote, b.DepositStatus,
		b.CancelledBy, b.ConditionReportedAt, b.DepositPaidAt, b.UpdatedAt, b.ID,
	)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Update", err, "bookingID", b.ID)
		return classify(err, "failed to update booking")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.ExitMethodWithError("bookingRepository.Update", domain.ErrBookingNotFound, "bookingID", b.ID)
		return domain.ErrBookingNotFound
	}

	logger.ExitMethod("bookingRepository.Update", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) ListByToolInRange(ctx context.Context, toolID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE tool_id = $1 AND start_date <= $3 AND end_date >= $2 AND status = ANY($4)
		ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, query, toolID, start, end, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for tool: %w", err)
	}
	return scanBookings(rows)
}

func (r *bookingRepository) ListApprovedCovering(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = 'APPROVED' AND start_date <= $2 AND end_date >= $1
		ORDER BY tool_id, start_date`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved bookings: %w", err)
	}
	return scanBookings(rows)
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	return r.listByParty(ctx, "renter_id", renterID, filter)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	return r.listByParty(ctx, "owner_id", ownerID, filter)
}

func (r *bookingRepository) listByParty(ctx context.Context, column string, userID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, int32, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := fmt.Sprintf(" FROM bookings WHERE %s = $1", column)
	args := []any{userID}
	if len(filter.Statuses) > 0 {
		today := filter.Today
		if today.IsZero() {
			today = utils.TruncateToDay(time.Now(), time.UTC)
		}
		args = append(args, today, pq.Array(statusStrings(filter.Statuses)))
		where += " AND " + fmt.Sprintf(effectiveStatusSQL, "$2") + " = ANY($3)"
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	argIdx := len(args) + 1
	query := "SELECT " + bookingColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

func (r *bookingRepository) ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, today time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE owner_id = $1 AND (status = 'COMPLETED' OR (status = 'APPROVED' AND end_date < $2))
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed bookings: %w", err)
	}
	return scanBookings(rows)
}

func (r *bookingRepository) SumOwnerCredits(ctx context.Context, ownerID uuid.UUID, today time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN status = 'CANCELLED' THEN cancellation_fee ELSE total_price END), 0)
		FROM bookings
		WHERE owner_id = $1 AND (
			status = 'CANCELLED'
			OR (payment_status = 'COMPLETED' AND (status = 'COMPLETED' OR (status = 'APPROVED' AND end_date < $2)))
		)
	`
	var sum decimal.Decimal
	logger.DatabaseCall("bookings.sumOwnerCredits", query, "ownerID", ownerID)
	if err := r.db.QueryRowContext(ctx, query, ownerID, today).Scan(&sum); err != nil {
		logger.DatabaseResult("bookings.sumOwnerCredits", 0, err, "ownerID", ownerID)
		return decimal.Zero, fmt.Errorf("failed to sum owner credits: %w", err)
	}
	logger.DatabaseResult("bookings.sumOwnerCredits", 1, nil, "ownerID", ownerID)
	return sum, nil
}
