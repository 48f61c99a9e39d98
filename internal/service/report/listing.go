package report

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// EmployeeHistory implements report.ReportService.
func (s *ReportServiceImpl) EmployeeHistory(ctx context.Context, viewer employee.Actor, employeeID string, req report.RangeRequest) (report.HistoryResponse, error) {
	if !viewer.IsManager() {
		return report.HistoryResponse{}, employee.ErrManagerAccessRequired
	}
	if !validator.IsValidUUID(employeeID) {
		return report.HistoryResponse{}, employee.ErrEmployeeNotFound
	}
	if _, err := s.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return report.HistoryResponse{}, err
	}
	return s.History(ctx, employeeID, req)
}

// ListAttendance implements report.ReportService. Rows are newest day first; within a
// day they follow the team order (department, then name).
func (s *ReportServiceImpl) ListAttendance(ctx context.Context, viewer employee.Actor, req report.AttendanceListRequest) (report.AttendanceListResponse, error) {
	if !viewer.IsManager() {
		return report.AttendanceListResponse{}, employee.ErrManagerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return report.AttendanceListResponse{}, err
	}

	if req.To == "" {
		req.To = clock.DateKey(s.clock.Now())
	}
	if req.From == "" {
		req.From = req.To[:len("2006-01")] + "-01"
	}
	from, to, err := s.parseRange(report.RangeRequest{From: req.From, To: req.To})
	if err != nil {
		return report.AttendanceListResponse{}, err
	}

	employees, err := s.team(ctx, viewer, employee.Filter{Department: req.Department, EmployeeID: req.EmployeeID})
	if err != nil {
		return report.AttendanceListResponse{}, err
	}
	resolved, err := s.resolveEmployees(ctx, employees, from, to)
	if err != nil {
		return report.AttendanceListResponse{}, err
	}

	var rows []report.AttendanceRow
	if len(resolved) > 0 {
		for i := len(resolved[0].days) - 1; i >= 0; i-- {
			for _, r := range resolved {
				day := r.days[i]
				if req.Status != nil && day.Status != resolution.DayStatus(*req.Status) {
					continue
				}
				rows = append(rows, report.AttendanceRow{
					EmployeeID:   r.employee.ID,
					EmployeeName: r.employee.FullName,
					EmployeeCode: r.employee.EmployeeCode,
					Department:   r.employee.Department,
					DayResponse:  toDayResponse(day),
				})
			}
		}
	}

	total := len(rows)
	start := min((req.Page-1)*req.Limit, total)
	end := min(start+req.Limit, total)

	return report.AttendanceListResponse{
		From:  clock.DateKey(from),
		To:    clock.DateKey(to),
		Rows:  append([]report.AttendanceRow{}, rows[start:end]...),
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}
