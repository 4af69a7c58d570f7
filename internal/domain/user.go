package domain

import "github.com/google/uuid"

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	// SubscriptionDiscountPercent is 0 when the user has no active subscription.
	SubscriptionDiscountPercent int `json:"subscription_discount_percent"`
}
