package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// Policy holds the employer's lateness and half-day rules.
type Policy struct {
	// LateAfter is the offset from midnight at which a check-in counts as late.
	LateAfter time.Duration
	// HalfDayHours is the minimum worked hours for a full day.
	HalfDayHours decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		LateAfter:    9*time.Hour + 30*time.Minute,
		HalfDayHours: decimal.NewFromInt(4),
	}
}

// LateThreshold returns the late-arrival cutoff on day, in day's location.
func (p Policy) LateThreshold(day time.Time) time.Time {
	return clock.StartOfDay(day).Add(p.LateAfter)
}

// StatusAt returns present for a check-in strictly before the threshold, late otherwise.
func (p Policy) StatusAt(checkIn time.Time) Status {
	if checkIn.Before(p.LateThreshold(checkIn)) {
		return StatusPresent
	}
	return StatusLate
}

// MinutesLate returns whole minutes past the threshold, or 0 when on time.
func (p Policy) MinutesLate(checkIn time.Time) int {
	over := checkIn.Sub(p.LateThreshold(checkIn))
	if over <= 0 {
		return 0
	}
	return int(over / time.Minute)
}

// HoursBetween returns the worked hours rounded to two decimals. Negative spans count as zero.
func (p Policy) HoursBetween(checkIn, checkOut time.Time) decimal.Decimal {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour))).Round(2)
}

// StatusAfterCheckout downgrades a short day to half-day and keeps the check-in status otherwise.
func (p Policy) StatusAfterCheckout(current Status, hours decimal.Decimal) Status {
	if hours.LessThan(p.HalfDayHours) {
		return StatusHalfDay
	}
	return current
}
