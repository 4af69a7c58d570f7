package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Invalid month", func(t *testing.T) {
		_, err := ParseDate("2024-13-15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "month must be between 1 and 12")
	})

	t.Run("Day past end of month", func(t *testing.T) {
		_, err := ParseDate("2023-02-29")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "day must be between 1 and 28")
	})
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year     int
		month    int
		expected int
	}{
		{2024, 1, 31},
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 11, 30},
		{2000, 2, 29}, // divisible by 400
		{1900, 2, 28}, // divisible by 100 but not 400
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestRentalDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	days, err := RentalDays(start, start)
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	days, err = RentalDays(start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	days, err = RentalDays(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	_, err = RentalDays(start, start.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestTruncateToDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on the 2nd is still the 1st in New York.
	instant := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), TruncateToDay(instant, ny))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), TruncateToDay(instant, nil))
}

func TestCalculateBookingPrice(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	t.Run("No discount", func(t *testing.T) {
		price, err := CalculateBookingPrice(start, end, decimal.NewFromInt(10), 0)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(30)), price.String())
	})

	t.Run("Subscription discount", func(t *testing.T) {
		price, err := CalculateBookingPrice(start, end, decimal.NewFromInt(10), 15)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("25.5")), price.String())
	})

	t.Run("Rounds to cents", func(t *testing.T) {
		price, err := CalculateBookingPrice(start, start, decimal.RequireFromString("9.99"), 33)
		require.NoError(t, err)
		assert.Equal(t, "6.69", price.StringFixed(2))
	})

	t.Run("Discount is clamped", func(t *testing.T) {
		price, err := CalculateBookingPrice(start, end, decimal.NewFromInt(10), 150)
		require.NoError(t, err)
		assert.True(t, price.IsZero())
	})

	t.Run("Reversed range", func(t *testing.T) {
		_, err := CalculateBookingPrice(end, start, decimal.NewFromInt(10), 0)
		assert.Error(t, err)
	})
}
