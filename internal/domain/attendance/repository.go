package attendance

import (
	"context"
	"time"
)

// RecordFilter selects records whose day falls in [From, To].
// An empty EmployeeIDs slice means every employee.
type RecordFilter struct {
	EmployeeIDs []string
	From        time.Time
	To          time.Time
}

// AttendanceRepository stores one record per (employee, day).
type AttendanceRepository interface {
	// GetByEmployeeAndDay returns ErrRecordNotFound when no record exists.
	GetByEmployeeAndDay(ctx context.Context, employeeID string, day time.Time) (Record, error)

	// GetByEmployeeAndDayForUpdate is GetByEmployeeAndDay holding a row lock until the
	// surrounding transaction ends.
	GetByEmployeeAndDayForUpdate(ctx context.Context, employeeID string, day time.Time) (Record, error)

	// Create inserts a record and returns ErrConflict if one already exists for the day.
	Create(ctx context.Context, record Record) (Record, error)

	Update(ctx context.Context, record Record) (Record, error)

	// UpsertLeave writes a leave record for the day, creating or overwriting atomically.
	UpsertLeave(ctx context.Context, employeeID string, day time.Time, leaveType string) (Record, error)

	// CreateAbsences inserts absent records for employees with no record on day and
	// returns how many were written. Existing records are left untouched.
	CreateAbsences(ctx context.Context, employeeIDs []string, day time.Time) (int, error)

	List(ctx context.Context, filter RecordFilter) ([]Record, error)
}
