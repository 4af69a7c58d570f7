package notify

import (
	"context"
	"errors"

	"toolrent-backend/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, event domain.BookingEvent) error
}

// Multi delivers each event to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event domain.BookingEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, domain.BookingEvent) error { return nil }
