package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type RecordResponse struct {
	ID         string  `json:"id,omitempty"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	CheckInAt  *string `json:"check_in_at"`
	CheckOutAt *string `json:"check_out_at"`
	Status     Status  `json:"status"`
	LeaveType  *string `json:"leave_type,omitempty"`
	TotalHours float64 `json:"total_hours"`
}

// TodayResponse is the caller's record for today, or an absent shape with Recorded=false.
type TodayResponse struct {
	RecordResponse
	Recorded bool `json:"recorded"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       clock.DateKey(r.Day),
		CheckInAt:  FormatInstant(r.CheckInAt),
		CheckOutAt: FormatInstant(r.CheckOutAt),
		Status:     r.Status,
		LeaveType:  r.LeaveType,
		TotalHours: r.TotalHours.InexactFloat64(),
	}
}

// FormatInstant renders an optional instant as RFC3339.
func FormatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
