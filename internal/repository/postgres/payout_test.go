package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository/postgres"
)

func TestPayoutRepository_CreateAndUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPayoutRepository(db)
	ctx := context.Background()
	p := &domain.Payout{
		ID: uuid.New(), OwnerID: uuid.New(), Amount: decimal.NewFromInt(20),
		Status: domain.PayoutStatusPending, RequestedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO payouts").
		WithArgs(p.ID, p.OwnerID, p.Amount, p.Status, "", "", p.RequestedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, p))

	done := time.Now()
	p.Status = domain.PayoutStatusCompleted
	p.ExternalRef = "tr-1"
	p.CompletedAt = &done
	mock.ExpectExec("UPDATE payouts SET").
		WithArgs(p.Status, "tr-1", "", done, p.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(ctx, p))

	mock.ExpectExec("UPDATE payouts SET").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(ctx, &domain.Payout{ID: uuid.New()}), domain.ErrPayoutNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepository_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPayoutRepository(db)
	ownerID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "amount", "status", "external_ref", "failure_reason", "requested_at", "completed_at"}).
		AddRow(uuid.NewString(), ownerID.String(), "20.00", "COMPLETED", "tr-1", "", now, now).
		AddRow(uuid.NewString(), ownerID.String(), "5.00", "FAILED", "", "bank rejected", now, nil)
	mock.ExpectQuery(`FROM payouts WHERE owner_id = \$1 ORDER BY requested_at DESC LIMIT \$2`).
		WithArgs(ownerID, int32(10)).
		WillReturnRows(rows)

	payouts, err := repo.ListByOwner(context.Background(), ownerID, 0)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, domain.PayoutStatusCompleted, payouts[0].Status)
	assert.NotNil(t, payouts[0].CompletedAt)
	assert.Equal(t, "bank rejected", payouts[1].FailureReason)
	assert.Nil(t, payouts[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepository_SumDebits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewPayoutRepository(db)
	ownerID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payouts WHERE owner_id = \$1 AND status IN \('PENDING', 'COMPLETED'\)`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("25"))

	sum, err := repo.SumDebits(context.Background(), ownerID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(sum))
	assert.NoError(t, mock.ExpectationsWereMet())
}
