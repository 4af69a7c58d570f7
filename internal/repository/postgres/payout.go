package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
)

type payoutRepository struct {
	db DBTX
}

func NewPayoutRepository(db DBTX) repository.PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) Create(ctx context.Context, p *domain.Payout) error {
	logger.EnterMethod("payoutRepository.Create", "ownerID", p.OwnerID, "amount", p.Amount)

	query := `INSERT INTO payouts (id, owner_id, amount, status, external_ref, failure_reason, requested_at, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.OwnerID, p.Amount, p.Status, p.ExternalRef, p.FailureReason, p.RequestedAt, p.CompletedAt)
	if err != nil {
		logger.ExitMethodWithError("payoutRepository.Create", err, "ownerID", p.OwnerID)
		return classify(err, "failed to insert payout")
	}

	logger.ExitMethod("payoutRepository.Create", "payoutID", p.ID)
	return nil
}

func (r *payoutRepository) Update(ctx context.Context, p *domain.Payout) error {
	query := `UPDATE payouts SET status = $1, external_ref = $2, failure_reason = $3, completed_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, p.Status, p.ExternalRef, p.FailureReason, p.CompletedAt, p.ID)
	if err != nil {
		return classify(err, "failed to update payout")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPayoutNotFound
	}
	return nil
}

func (r *payoutRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]domain.Payout, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, owner_id, amount, status, COALESCE(external_ref, ''), COALESCE(failure_reason, ''), requested_at, completed_at
	          FROM payouts WHERE owner_id = $1 ORDER BY requested_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		var p domain.Payout
		var completedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Amount, &p.Status, &p.ExternalRef, &p.FailureReason, &p.RequestedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			p.CompletedAt = &t
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func (r *payoutRepository) SumDebits(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE owner_id = $1 AND status IN ('PENDING', 'COMPLETED')`
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payouts: %w", err)
	}
	return sum, nil
}
