package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.ToolCatalog
	repository.UserDirectory
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		ToolCatalog:   NewToolCatalog(db),
		UserDirectory: NewUserDirectory(db),
	}
}

func reposFor(db DBTX) repository.Repos {
	return repository.Repos{
		Bookings: NewBookingRepository(db),
		Payouts:  NewPayoutRepository(db),
		Locks:    NewAdvisoryLocker(db),
	}
}

func (s *Store) Repos() repository.Repos {
	return reposFor(s.db)
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken with
// SELECT ... FOR UPDATE and advisory locks are released on commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logger.Error("Failed to roll back transaction", "error", rbErr)
			}
		}
	}()

	if err = fn(ctx, reposFor(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify maps constraint violations onto the domain taxonomy so the
// transport boundary reports them as client errors.
func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation", "serialization_failure", "deadlock_detected":
			return fmt.Errorf("%w: %s: %s", domain.ErrConflict, op, pqErr.Message)
		case "foreign_key_violation", "check_violation", "not_null_violation":
			return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, op, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
