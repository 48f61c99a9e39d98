// Package resolution merges attendance records and leave requests into one
// canonical status per employee and day. Every read path goes through here.
package resolution

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

type DayStatus string

const (
	DayPresent       DayStatus = "present"
	DayLate          DayStatus = "late"
	DayHalfDay       DayStatus = "half-day"
	DayAbsent        DayStatus = "absent"
	DayLeaveApproved DayStatus = "leave-approved"
	DayLeavePending  DayStatus = "leave-pending"
	DayNoRecord      DayStatus = "no-record"
)

func AllDayStatuses() []DayStatus {
	return []DayStatus{DayPresent, DayLate, DayHalfDay, DayAbsent, DayLeaveApproved, DayLeavePending, DayNoRecord}
}

// IsLeave reports whether the status comes from a leave, approved or pending.
func (s DayStatus) IsLeave() bool {
	return s == DayLeaveApproved || s == DayLeavePending
}

// ResolveDay returns the canonical status of one employee's day.
//
// Precedence, highest first:
//  1. a leave-derived attendance record
//  2. any other attendance record, status passed through
//  3. an approved leave covering the day
//  4. a pending leave covering the day
//  5. nothing known
//
// leaves may contain requests that do not cover day; they are ignored, as are rejected ones.
func ResolveDay(day time.Time, record *attendance.Record, leaves []leave.LeaveRequest) DayStatus {
	status, _ := resolve(day, record, leaves)
	return status
}

func resolve(day time.Time, record *attendance.Record, leaves []leave.LeaveRequest) (DayStatus, *leave.LeaveRequest) {
	if record != nil {
		if record.IsLeave() {
			return DayLeaveApproved, coveringLeave(day, leaves, leave.LeaveRequestStatusApproved)
		}
		return fromRecordStatus(record.Status), nil
	}
	if l := coveringLeave(day, leaves, leave.LeaveRequestStatusApproved); l != nil {
		return DayLeaveApproved, l
	}
	if l := coveringLeave(day, leaves, leave.LeaveRequestStatusPending); l != nil {
		return DayLeavePending, l
	}
	return DayNoRecord, nil
}

func fromRecordStatus(s attendance.Status) DayStatus {
	switch s {
	case attendance.StatusPresent:
		return DayPresent
	case attendance.StatusLate:
		return DayLate
	case attendance.StatusHalfDay:
		return DayHalfDay
	case attendance.StatusLeave:
		return DayLeaveApproved
	default:
		return DayAbsent
	}
}

func coveringLeave(day time.Time, leaves []leave.LeaveRequest, status leave.LeaveRequestStatus) *leave.LeaveRequest {
	for i := range leaves {
		if leaves[i].Status == status && leaves[i].Covers(day) {
			return &leaves[i]
		}
	}
	return nil
}

// Lateness describes a check-in against the late threshold of its day.
type Lateness struct {
	IsLate       bool   `json:"is_late"`
	MinutesLate  int    `json:"minutes_late"`
	ExpectedTime string `json:"expected_time"`
}

// Day is a fully resolved employee day.
type Day struct {
	Date       time.Time
	Status     DayStatus
	Record     *attendance.Record
	Leave      *leave.LeaveRequest // the leave that decided Status, if any
	Lateness   *Lateness           // set only when the record has a check-in
	TotalHours decimal.Decimal
}

// Resolve computes the status of day along with the values derived from the same inputs.
func Resolve(day time.Time, record *attendance.Record, leaves []leave.LeaveRequest, policy attendance.Policy) Day {
	status, decidedBy := resolve(day, record, leaves)
	out := Day{
		Date:       clock.StartOfDay(day),
		Status:     status,
		Record:     record,
		Leave:      decidedBy,
		TotalHours: decimal.Zero,
	}
	if record == nil {
		return out
	}
	out.TotalHours = record.TotalHours
	if record.CheckInAt != nil {
		threshold := policy.LateThreshold(*record.CheckInAt)
		minutes := policy.MinutesLate(*record.CheckInAt)
		out.Lateness = &Lateness{
			IsLate:       !record.CheckInAt.Before(threshold),
			MinutesLate:  minutes,
			ExpectedTime: threshold.Format("15:04"),
		}
	}
	return out
}

// ResolveRange resolves every day in [from, to] for one employee. records and leaves
// may be unsorted and may include entries outside the range.
func ResolveRange(from, to time.Time, records []attendance.Record, leaves []leave.LeaveRequest, policy attendance.Policy) []Day {
	byDay := make(map[string]*attendance.Record, len(records))
	for i := range records {
		byDay[clock.DateKey(records[i].Day.In(from.Location()))] = &records[i]
	}

	var days []Day
	for d := range clock.DaysInRange(from, to) {
		days = append(days, Resolve(d, byDay[clock.DateKey(d)], leaves, policy))
	}
	return days
}
