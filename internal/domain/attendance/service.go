package attendance

import (
	"context"
)

// AttendanceService runs the per-day check-in/check-out lifecycle.
type AttendanceService interface {
	// CheckIn opens today's record for the employee.
	CheckIn(ctx context.Context, employeeID string) (RecordResponse, error)

	// CheckOut closes today's record and derives worked hours.
	CheckOut(ctx context.Context, employeeID string) (RecordResponse, error)

	// Today returns today's record without side effects.
	Today(ctx context.Context, employeeID string) (TodayResponse, error)
}
