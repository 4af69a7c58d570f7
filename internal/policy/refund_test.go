package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRefundPercentage(t *testing.T) {
	today := day(2024, 6, 10)
	tiers := DefaultRefundTiers()

	tests := []struct {
		name     string
		start    time.Time
		expected int
	}{
		{"Ten days away", today.AddDate(0, 0, 10), 100},
		{"Exactly seven days", today.AddDate(0, 0, 7), 100},
		{"Six days", today.AddDate(0, 0, 6), 50},
		{"Three days", today.AddDate(0, 0, 3), 50},
		{"Tomorrow", today.AddDate(0, 0, 1), 50},
		{"Starts today", today, 0},
		{"Already started", today.AddDate(0, 0, -2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RefundPercentage(today, tt.start, tiers))
		})
	}
}

func TestRefundPercentage_UnsortedTiers(t *testing.T) {
	today := day(2024, 6, 10)
	tiers := []RefundTier{{MinDaysBeforeStart: 1, Percent: 25}, {MinDaysBeforeStart: 14, Percent: 100}, {MinDaysBeforeStart: 3, Percent: 75}}

	assert.Equal(t, 100, RefundPercentage(today, today.AddDate(0, 0, 20), tiers))
	assert.Equal(t, 75, RefundPercentage(today, today.AddDate(0, 0, 5), tiers))
	assert.Equal(t, 25, RefundPercentage(today, today.AddDate(0, 0, 2), tiers))
}

func TestCalculateRefund(t *testing.T) {
	today := day(2024, 6, 10)
	total := decimal.NewFromInt(100)
	tiers := DefaultRefundTiers()

	full := CalculateRefund(total, today, today.AddDate(0, 0, 10), tiers)
	assert.Equal(t, 100, full.Percentage)
	assert.True(t, full.RefundAmount.Equal(total))
	assert.True(t, full.OwnerCredit.IsZero())

	half := CalculateRefund(total, today, today.AddDate(0, 0, 3), tiers)
	assert.Equal(t, 50, half.Percentage)
	assert.True(t, half.RefundAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, half.OwnerCredit.Equal(decimal.NewFromInt(50)))

	none := CalculateRefund(total, today, today, tiers)
	assert.Equal(t, 0, none.Percentage)
	assert.True(t, none.RefundAmount.IsZero())
	assert.True(t, none.OwnerCredit.Equal(total))
}

func TestCalculateRefund_OddCents(t *testing.T) {
	today := day(2024, 6, 10)
	total := decimal.RequireFromString("33.33")

	r := CalculateRefund(total, today, today.AddDate(0, 0, 2), DefaultRefundTiers())
	assert.Equal(t, "16.67", r.RefundAmount.StringFixed(2))
	assert.True(t, r.RefundAmount.Add(r.OwnerCredit).Equal(total))
}

func TestNewPolicy(t *testing.T) {
	p, err := New([]RefundTier{{MinDaysBeforeStart: 1, Percent: 50}, {MinDaysBeforeStart: 7, Percent: 100}}, decimal.NewFromInt(40), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, p.RefundTiers[0].MinDaysBeforeStart)
	assert.Equal(t, time.UTC, p.Location)

	_, err = New([]RefundTier{{MinDaysBeforeStart: 3, Percent: 120}}, decimal.NewFromInt(40), nil)
	assert.Error(t, err)

	_, err = New(nil, decimal.Zero, nil)
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, day(2024, 6, 10), Today(c, time.UTC))

	c.AddDays(1)
	assert.Equal(t, day(2024, 6, 11), Today(c, nil))
}
