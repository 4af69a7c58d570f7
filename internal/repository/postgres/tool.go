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

// toolCatalog reads the catalog's tools table. The catalog service owns the
// table; the booking engine only reads prices and flips the active flag.
type toolCatalog struct {
	db DBTX
}

func NewToolCatalog(db DBTX) repository.ToolCatalog {
	return &toolCatalog{db: db}
}

func (r *toolCatalog) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	t := &domain.Tool{}
	query := `SELECT id, owner_id, name, price_per_day, active FROM tools WHERE id = $1 AND deleted_on IS NULL`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.OwnerID, &t.Name, &t.PricePerDay, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrToolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tool: %w", err)
	}
	return t, nil
}

func (r *toolCatalog) SetToolActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tools SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update tool availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}
