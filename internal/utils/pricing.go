package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// ParseDate converts a yyyy-mm-dd string into a calendar day at midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %v", err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %v", err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// TruncateToDay drops the time of day, keeping the calendar date of t in loc.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	a = TruncateToDay(a, time.UTC)
	b = TruncateToDay(b, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// RentalDays counts both the start and the end date.
func RentalDays(start, end time.Time) (int, error) {
	diff := DaysBetween(start, end)
	if diff < 0 {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	return diff + 1, nil
}

// CalculateBookingPrice returns days * pricePerDay reduced by discountPercent,
// rounded to cents. Discounts outside 0..100 are clamped.
func CalculateBookingPrice(start, end time.Time, pricePerDay decimal.Decimal, discountPercent int) (decimal.Decimal, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}

	gross := pricePerDay.Mul(decimal.NewFromInt(int64(days)))
	if discountPercent == 0 {
		return gross.Round(2), nil
	}
	factor := decimal.NewFromInt(int64(100 - discountPercent)).Div(decimal.NewFromInt(100))
	return gross.Mul(factor).Round(2), nil
}
