package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tool is the catalog's view of a rentable tool as seen by the booking engine.
type Tool struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Name        string          `json:"name"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
	Active      bool            `json:"active"`
}
