package leave

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

// AttendanceSideEffector writes a leave attendance record for every day of an approved request.
type AttendanceSideEffector struct {
	attendance attendance.AttendanceRepository
}

func NewAttendanceSideEffector(attendanceRepository attendance.AttendanceRepository) *AttendanceSideEffector {
	return &AttendanceSideEffector{attendance: attendanceRepository}
}

// ApplyApproved overwrites or creates one leave record per covered day. Running it again
// for the same request leaves the same state. Callers wrap it in a transaction.
func (s *AttendanceSideEffector) ApplyApproved(ctx context.Context, request leave.LeaveRequest) error {
	if request.Status != leave.LeaveRequestStatusApproved {
		return leave.ErrLeaveNotApproved
	}

	for day := range clock.DaysInRange(request.StartDate, request.EndDate) {
		if _, err := s.attendance.UpsertLeave(ctx, request.EmployeeID, day, string(request.Type)); err != nil {
			return fmt.Errorf("failed to write leave for %s: %w", clock.DateKey(day), err)
		}
	}
	return nil
}
