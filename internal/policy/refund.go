package policy

import (
	"time"

	"github.com/shopspring/decimal"

	"toolrent-backend/internal/utils"
)

var hundred = decimal.NewFromInt(100)

// RefundPercentage maps the days left until start onto the tier table.
// A booking that starts today or has already started refunds nothing.
func RefundPercentage(today, start time.Time, tiers []RefundTier) int {
	daysUntil := utils.DaysBetween(today, start)
	if daysUntil <= 0 {
		return 0
	}
	best := 0
	threshold := -1
	for _, t := range tiers {
		if daysUntil >= t.MinDaysBeforeStart && t.MinDaysBeforeStart > threshold {
			best = t.Percent
			threshold = t.MinDaysBeforeStart
		}
	}
	return best
}

// Refund is the split of a paid total between renter and owner.
type Refund struct {
	Percentage   int
	RefundAmount decimal.Decimal
	OwnerCredit  decimal.Decimal
}

// CalculateRefund splits total into the renter refund and the owner's
// cancellation fee. The two amounts always sum to total.
func CalculateRefund(total decimal.Decimal, today, start time.Time, tiers []RefundTier) Refund {
	pct := RefundPercentage(today, start, tiers)
	refund := total.Mul(decimal.NewFromInt(int64(pct))).Div(hundred).Round(2)
	return Refund{
		Percentage:   pct,
		RefundAmount: refund,
		OwnerCredit:  total.Sub(refund),
	}
}
