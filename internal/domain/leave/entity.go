package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

type LeaveType string

const (
	TypeSick      LeaveType = "sick"
	TypeCasual    LeaveType = "casual"
	TypeEmergency LeaveType = "emergency"
	TypeAnnual    LeaveType = "annual"
	TypeMaternity LeaveType = "maternity"
	TypePaternity LeaveType = "paternity"
	TypeOther     LeaveType = "other"
)

func AllLeaveTypes() []LeaveType {
	return []LeaveType{TypeSick, TypeCasual, TypeEmergency, TypeAnnual, TypeMaternity, TypePaternity, TypeOther}
}

func (t LeaveType) Valid() bool {
	for _, v := range AllLeaveTypes() {
		if v == t {
			return true
		}
	}
	return false
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "rejected"
)

// IsDecision reports whether s is a legal target of a pending request.
func (s LeaveRequestStatus) IsDecision() bool {
	return s == LeaveRequestStatusApproved || s == LeaveRequestStatusRejected
}

// LeaveRequest covers the inclusive day range [StartDate, EndDate].
type LeaveRequest struct {
	ID              string
	EmployeeID      string
	Type            LeaveType
	Reason          string
	StartDate       time.Time
	EndDate         time.Time
	Status          LeaveRequestStatus
	DecidedBy       *string
	DecidedAt       *time.Time
	DecisionComment *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO
	EmployeeName *string
}

// Covers reports whether day falls inside the request's range, comparing calendar days
// in the location of StartDate.
func (r LeaveRequest) Covers(day time.Time) bool {
	loc := r.StartDate.Location()
	key := clock.DateKey(day.In(loc))
	return clock.DateKey(r.StartDate) <= key && key <= clock.DateKey(r.EndDate.In(loc))
}

// Days returns the number of calendar days in the range.
func (r LeaveRequest) Days() int {
	n := 0
	for range clock.DaysInRange(r.StartDate, r.EndDate) {
		n++
	}
	return n
}
