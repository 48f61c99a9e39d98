package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
	StatusLeave   Status = "leave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusLeave:
		return true
	}
	return false
}

// Record is the single attendance row of an employee for one calendar day.
type Record struct {
	ID         string
	EmployeeID string
	Day        time.Time // midnight in the employer's location
	CheckInAt  *time.Time
	CheckOutAt *time.Time
	Status     Status
	LeaveType  *string // set only when Status is leave
	TotalHours decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r Record) HasCheckedIn() bool {
	return r.CheckInAt != nil
}

func (r Record) HasCheckedOut() bool {
	return r.CheckOutAt != nil
}

func (r Record) IsLeave() bool {
	return r.Status == StatusLeave
}
