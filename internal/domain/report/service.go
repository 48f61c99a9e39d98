package report

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
)

// ReportService serves every read of resolved attendance. All of it goes through the
// resolution engine.
type ReportService interface {
	History(ctx context.Context, employeeID string, req RangeRequest) (HistoryResponse, error)
	DayDetail(ctx context.Context, employeeID string, date string) (DayResponse, error)
	Calendar(ctx context.Context, employeeID string, req PeriodRequest) (CalendarResponse, error)
	MonthlySummary(ctx context.Context, employeeID string, req PeriodRequest) (SummaryResponse, error)

	// Manager only
	TeamSummary(ctx context.Context, viewer employee.Actor, req PeriodRequest) (TeamSummaryResponse, error)
	TeamCalendar(ctx context.Context, viewer employee.Actor, req PeriodRequest) (TeamCalendarResponse, error)
	ManagerDashboard(ctx context.Context, viewer employee.Actor) (ManagerDashboardResponse, error)
	EmployeeHistory(ctx context.Context, viewer employee.Actor, employeeID string, req RangeRequest) (HistoryResponse, error)
	ListAttendance(ctx context.Context, viewer employee.Actor, req AttendanceListRequest) (AttendanceListResponse, error)
	Export(ctx context.Context, viewer employee.Actor, req ExportRequest) (ExportFile, error)

	EmployeeDashboard(ctx context.Context, employeeID string) (EmployeeDashboardResponse, error)
}
