package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/policy"
)

type SyncResult struct {
	Deactivated int
	Reactivated int
}

// SyncToolAvailability takes tools off the market while an approved booking
// covers today and puts them back once the last covering booking has ended.
// Booking status is never touched; completion stays lazy.
func (jr *JobRunner) SyncToolAvailability() {
	jr.runWithRecovery("SyncToolAvailability", func() error {
		res, err := jr.SyncToolAvailabilityAt(context.Background(), policy.Today(jr.clock, jr.policy.Location))
		if err != nil {
			return err
		}
		logger.Info("Synced tool availability", "deactivated", res.Deactivated, "reactivated", res.Reactivated)
		return nil
	})
}

// SyncToolAvailabilityAt considers approved bookings covering yesterday or
// today. Tools without such bookings keep whatever state their owner set.
func (jr *JobRunner) SyncToolAvailabilityAt(ctx context.Context, today time.Time) (SyncResult, error) {
	var res SyncResult
	yesterday := today.AddDate(0, 0, -1)

	bookings, err := jr.store.Repos().Bookings.ListApprovedCovering(ctx, yesterday, today)
	if err != nil {
		return res, fmt.Errorf("failed to list approved bookings: %w", err)
	}

	busy := make(map[uuid.UUID]bool)
	for i := range bookings {
		b := &bookings[i]
		if _, seen := busy[b.ToolID]; !seen {
			busy[b.ToolID] = false
		}
		if b.Covers(today) {
			busy[b.ToolID] = true
		}
	}

	var failed int
	for toolID, inUse := range busy {
		tool, err := jr.tools.GetTool(ctx, toolID)
		if err != nil {
			logger.Warn("Skipping tool", "toolID", toolID, "error", err)
			failed++
			continue
		}
		if tool.Active == !inUse {
			continue
		}
		if err := jr.tools.SetToolActive(ctx, toolID, !inUse); err != nil {
			logger.Warn("Failed to update tool availability", "toolID", toolID, "error", err)
			failed++
			continue
		}
		if inUse {
			res.Deactivated++
		} else {
			res.Reactivated++
		}
		logger.Debug("Tool availability changed", "toolID", toolID, "active", !inUse)
	}

	if failed > 0 {
		return res, fmt.Errorf("%d tools could not be synced", failed)
	}
	return res, nil
}
