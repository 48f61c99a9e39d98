package resolution

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tally reduces resolved days into per-status counts.
type Tally struct {
	Present       int             `json:"present"`
	Late          int             `json:"late"`
	HalfDay       int             `json:"half_day"`
	Absent        int             `json:"absent"`
	LeaveApproved int             `json:"leave_approved"`
	LeavePending  int             `json:"leave_pending"`
	NoRecord      int             `json:"no_record"`
	TotalHours    decimal.Decimal `json:"-"`
}

func (t *Tally) Add(d Day) {
	switch d.Status {
	case DayPresent:
		t.Present++
	case DayLate:
		t.Late++
	case DayHalfDay:
		t.HalfDay++
	case DayAbsent:
		t.Absent++
	case DayLeaveApproved:
		t.LeaveApproved++
	case DayLeavePending:
		t.LeavePending++
	default:
		t.NoRecord++
	}
	t.TotalHours = t.TotalHours.Add(d.TotalHours)
}

func (t *Tally) AddAll(days []Day) {
	for _, d := range days {
		t.Add(d)
	}
}

// Merge folds other into t.
func (t *Tally) Merge(other Tally) {
	t.Present += other.Present
	t.Late += other.Late
	t.HalfDay += other.HalfDay
	t.Absent += other.Absent
	t.LeaveApproved += other.LeaveApproved
	t.LeavePending += other.LeavePending
	t.NoRecord += other.NoRecord
	t.TotalHours = t.TotalHours.Add(other.TotalHours)
}

// Days returns how many days were added.
func (t Tally) Days() int {
	return t.Present + t.Late + t.HalfDay + t.Absent + t.LeaveApproved + t.LeavePending + t.NoRecord
}

// OnTimePercentage is round(present / (present + late) * 100), or 0 with no arrivals.
func (t Tally) OnTimePercentage() int {
	arrivals := t.Present + t.Late
	if arrivals == 0 {
		return 0
	}
	return int(math.Round(float64(t.Present) / float64(arrivals) * 100))
}
