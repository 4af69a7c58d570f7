package postgres

import (
	"context"
	"fmt"

	"toolrent-backend/internal/repository"
)

type advisoryLocker struct {
	db DBTX
}

// NewAdvisoryLocker returns a Locker backed by transaction-scoped advisory
// locks. Outside a transaction the lock is released as soon as the statement ends.
func NewAdvisoryLocker(db DBTX) repository.Locker {
	return &advisoryLocker{db: db}
}

func (l *advisoryLocker) Lock(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return nil
}
