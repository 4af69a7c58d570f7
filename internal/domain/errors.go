package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps exactly one of these.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConflict               = errors.New("conflict")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidPayout          = errors.New("invalid payout")
)

var (
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrToolNotFound    = fmt.Errorf("tool %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrPayoutNotFound  = fmt.Errorf("payout %w", ErrNotFound)

	ErrInvalidDateRange = fmt.Errorf("%w: start date must not be after end date", ErrInvalidInput)
	ErrDateInPast       = fmt.Errorf("%w: booking dates must not be in the past", ErrInvalidInput)
	ErrOwnTool          = fmt.Errorf("%w: renter owns the tool", ErrInvalidInput)

	ErrApprovedOverlap   = fmt.Errorf("%w: tool already has an approved booking in this window", ErrConflict)
	ErrBookingNotPending = fmt.Errorf("%w: booking is not pending", ErrConflict)
	ErrAlreadyCancelled  = fmt.Errorf("%w: booking is already cancelled", ErrConflict)
	ErrNotCancellable    = fmt.Errorf("%w: booking can no longer be cancelled", ErrConflict)

	ErrNotBookingParty = fmt.Errorf("%w: caller is neither renter nor owner", ErrForbidden)
	ErrNotBookingOwner = fmt.Errorf("%w: caller is not the booking owner", ErrForbidden)
	ErrNotRenter       = fmt.Errorf("%w: caller is not the booking renter", ErrForbidden)

	ErrWindowEnded              = fmt.Errorf("%w: booking window has already ended", ErrInvalidStateTransition)
	ErrNotCompleted             = fmt.Errorf("%w: booking is not completed", ErrInvalidStateTransition)
	ErrConditionAlreadyReported = fmt.Errorf("%w: condition report already submitted", ErrInvalidStateTransition)
	ErrDepositNotRequired       = fmt.Errorf("%w: deposit not required", ErrInvalidStateTransition)
	ErrNotPayable               = fmt.Errorf("%w: booking cannot be paid in its current status", ErrInvalidStateTransition)
)

type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindInvalidInput           ErrorKind = "INVALID_INPUT"
	KindConflict               ErrorKind = "CONFLICT"
	KindForbidden              ErrorKind = "FORBIDDEN"
	KindInvalidStateTransition ErrorKind = "INVALID_STATE_TRANSITION"
	KindInsufficientBalance    ErrorKind = "INSUFFICIENT_BALANCE"
	KindInvalidPayout          ErrorKind = "INVALID_PAYOUT"
	KindInternal               ErrorKind = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidInput, KindInvalidInput},
	{ErrConflict, KindConflict},
	{ErrForbidden, KindForbidden},
	{ErrInvalidStateTransition, KindInvalidStateTransition},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrInvalidPayout, KindInvalidPayout},
}

// KindOf classifies err into the caller-facing taxonomy.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
