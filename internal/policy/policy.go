package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RefundTier grants Percent when a booking is cancelled at least
// MinDaysBeforeStart days before its start date.
type RefundTier struct {
	MinDaysBeforeStart int `yaml:"min_days_before_start"`
	Percent            int `yaml:"percent"`
}

// Policy holds the time-based rules of the booking engine.
type Policy struct {
	RefundTiers   []RefundTier
	DepositAmount decimal.Decimal
	Location      *time.Location
}

func DefaultRefundTiers() []RefundTier {
	return []RefundTier{
		{MinDaysBeforeStart: 7, Percent: 100},
		{MinDaysBeforeStart: 1, Percent: 50},
	}
}

func Default() Policy {
	return Policy{
		RefundTiers:   DefaultRefundTiers(),
		DepositAmount: decimal.NewFromInt(50),
		Location:      time.UTC,
	}
}

// New validates and normalises the tiers (sorted by threshold, descending).
func New(tiers []RefundTier, deposit decimal.Decimal, loc *time.Location) (Policy, error) {
	if len(tiers) == 0 {
		tiers = DefaultRefundTiers()
	}
	sorted := make([]RefundTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinDaysBeforeStart > sorted[j].MinDaysBeforeStart
	})
	for _, t := range sorted {
		if t.Percent < 0 || t.Percent > 100 {
			return Policy{}, fmt.Errorf("refund tier percent must be between 0 and 100: %d", t.Percent)
		}
		if t.MinDaysBeforeStart < 1 {
			return Policy{}, fmt.Errorf("refund tier threshold must be at least 1 day: %d", t.MinDaysBeforeStart)
		}
	}
	if !deposit.IsPositive() {
		return Policy{}, fmt.Errorf("deposit amount must be positive: %s", deposit)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Policy{RefundTiers: sorted, DepositAmount: deposit.Round(2), Location: loc}, nil
}
