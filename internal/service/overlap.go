package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

var approvedOnly = []domain.BookingStatus{domain.BookingStatusApproved}

// Overlaps reports whether two inclusive day ranges intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

type OverlapResolver struct{}

func NewOverlapResolver() *OverlapResolver {
	return &OverlapResolver{}
}

// HasApprovedConflict reports whether an APPROVED booking of toolID other
// than excluding intersects [start, end]. Callers hold the tool lock.
func (r *OverlapResolver) HasApprovedConflict(ctx context.Context, bookings repository.BookingRepository, toolID uuid.UUID, start, end time.Time, excluding *uuid.UUID) (bool, error) {
	siblings, err := bookings.ListByToolInRange(ctx, toolID, start, end, approvedOnly)
	if err != nil {
		return false, err
	}
	for i := range siblings {
		sib := &siblings[i]
		if excluding != nil && sib.ID == *excluding {
			continue
		}
		if Overlaps(start, end, sib.StartDate, sib.EndDate) {
			return true, nil
		}
	}
	return false, nil
}
