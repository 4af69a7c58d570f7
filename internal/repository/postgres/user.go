package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type userDirectory struct {
	db DBTX
}

func NewUserDirectory(db DBTX) repository.UserDirectory {
	return &userDirectory{db: db}
}

// GetUser joins the active subscription, if any, for its discount.
func (r *userDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	query := `
		SELECT u.id, u.name, u.email, COALESCE(s.discount_percent, 0)
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id AND s.active
		WHERE u.id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.SubscriptionDiscountPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
