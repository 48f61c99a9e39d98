package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

// dashboardTrendDays is the trend window, today included.
const dashboardTrendDays = 7

func (s *ReportServiceImpl) team(ctx context.Context, viewer employee.Actor, filter employee.Filter) ([]employee.Employee, error) {
	if !viewer.IsManager() {
		return nil, employee.ErrManagerAccessRequired
	}
	employees, err := s.EmployeeRepository.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// TeamSummary implements report.ReportService.
func (s *ReportServiceImpl) TeamSummary(ctx context.Context, viewer employee.Actor, req report.PeriodRequest) (report.TeamSummaryResponse, error) {
	if !viewer.IsManager() {
		return report.TeamSummaryResponse{}, employee.ErrManagerAccessRequired
	}
	start, _, tallyEnd, err := s.period(&req)
	if err != nil {
		return report.TeamSummaryResponse{}, err
	}

	employees, err := s.team(ctx, viewer, employee.Filter{Department: req.Department})
	if err != nil {
		return report.TeamSummaryResponse{}, err
	}

	resp := report.TeamSummaryResponse{
		Year:        req.Year,
		Month:       req.Month,
		Department:  req.Department,
		Employees:   []report.EmployeeSummary{},
		Departments: []report.DepartmentSummary{},
	}
	// A month that has not started yet has nothing to tally.
	if tallyEnd.Before(start) {
		return resp, nil
	}

	resolved, err := s.resolveEmployees(ctx, employees, start, tallyEnd)
	if err != nil {
		return report.TeamSummaryResponse{}, err
	}

	var (
		total     resolution.Tally
		deptOrder []string
		deptTally = map[string]*resolution.Tally{}
		deptCount = map[string]int{}
	)
	for _, r := range resolved {
		var t resolution.Tally
		t.AddAll(r.days)

		resp.Employees = append(resp.Employees, report.EmployeeSummary{
			EmployeeID:   r.employee.ID,
			EmployeeName: r.employee.FullName,
			EmployeeCode: r.employee.EmployeeCode,
			Department:   r.employee.Department,
			Summary:      toTallyResponse(t),
		})

		dept := r.employee.Department
		if _, ok := deptTally[dept]; !ok {
			deptOrder = append(deptOrder, dept)
			deptTally[dept] = &resolution.Tally{}
		}
		deptTally[dept].Merge(t)
		deptCount[dept]++
		total.Merge(t)
	}

	for _, dept := range deptOrder {
		resp.Departments = append(resp.Departments, report.DepartmentSummary{
			Department: dept,
			Employees:  deptCount[dept],
			Summary:    toTallyResponse(*deptTally[dept]),
		})
	}
	resp.Total = toTallyResponse(total)
	return resp, nil
}

// TeamCalendar implements report.ReportService.
func (s *ReportServiceImpl) TeamCalendar(ctx context.Context, viewer employee.Actor, req report.PeriodRequest) (report.TeamCalendarResponse, error) {
	if !viewer.IsManager() {
		return report.TeamCalendarResponse{}, employee.ErrManagerAccessRequired
	}
	start, end, _, err := s.period(&req)
	if err != nil {
		return report.TeamCalendarResponse{}, err
	}

	employees, err := s.team(ctx, viewer, employee.Filter{Department: req.Department})
	if err != nil {
		return report.TeamCalendarResponse{}, err
	}
	resolved, err := s.resolveEmployees(ctx, employees, start, end)
	if err != nil {
		return report.TeamCalendarResponse{}, err
	}

	resp := report.TeamCalendarResponse{
		Year:       req.Year,
		Month:      req.Month,
		Department: req.Department,
		Employees:  make([]report.EmployeeCalendar, 0, len(resolved)),
	}
	for _, r := range resolved {
		cells := make([]report.CalendarCell, len(r.days))
		for i, d := range r.days {
			cells[i] = report.CalendarCell{Date: clock.DateKey(d.Date), Status: d.Status}
		}
		resp.Employees = append(resp.Employees, report.EmployeeCalendar{
			EmployeeID:   r.employee.ID,
			EmployeeName: r.employee.FullName,
			Department:   r.employee.Department,
			Days:         cells,
		})
	}
	return resp, nil
}

func addToday(stats *report.TodayStats, status resolution.DayStatus) {
	stats.TotalEmployees++
	switch status {
	case resolution.DayPresent:
		stats.Present++
	case resolution.DayLate:
		stats.Late++
	case resolution.DayHalfDay:
		stats.HalfDay++
	case resolution.DayAbsent:
		stats.Absent++
	case resolution.DayLeaveApproved:
		stats.OnLeave++
	case resolution.DayLeavePending:
		stats.LeavePending++
	case resolution.DayNoRecord:
		stats.NoRecord++
	}
}

// attendanceRate is the share of employees who showed up, in whole percent.
func attendanceRate(stats report.TodayStats) int {
	if stats.TotalEmployees == 0 {
		return 0
	}
	attended := stats.Present + stats.Late + stats.HalfDay
	return int(math.Round(float64(attended) / float64(stats.TotalEmployees) * 100))
}

// ManagerDashboard implements report.ReportService.
func (s *ReportServiceImpl) ManagerDashboard(ctx context.Context, viewer employee.Actor) (report.ManagerDashboardResponse, error) {
	employees, err := s.team(ctx, viewer, employee.Filter{})
	if err != nil {
		return report.ManagerDashboardResponse{}, err
	}

	today := clock.StartOfDay(s.clock.Now())
	from := today.AddDate(0, 0, -(dashboardTrendDays - 1))

	resolved, err := s.resolveEmployees(ctx, employees, from, today)
	if err != nil {
		return report.ManagerDashboardResponse{}, err
	}

	resp := report.ManagerDashboardResponse{
		Date:         clock.DateKey(today),
		Trend:        make([]report.TrendPoint, 0, dashboardTrendDays),
		Departments:  []report.DepartmentStats{},
		LateArrivals: []report.LateArrival{},
		Absentees:    []report.Absentee{},
	}

	i := 0
	for d := range clock.DaysInRange(from, today) {
		point := report.TrendPoint{Date: clock.DateKey(d)}
		for _, r := range resolved {
			switch r.days[i].Status {
			case resolution.DayPresent:
				point.Present++
			case resolution.DayLate:
				point.Late++
			case resolution.DayHalfDay:
				point.HalfDay++
			case resolution.DayAbsent:
				point.Absent++
			case resolution.DayLeaveApproved:
				point.OnLeave++
			}
		}
		resp.Trend = append(resp.Trend, point)
		i++
	}

	var deptOrder []string
	deptStats := map[string]*report.TodayStats{}
	for _, r := range resolved {
		day := r.days[len(r.days)-1]
		e := r.employee

		addToday(&resp.Today, day.Status)
		if _, ok := deptStats[e.Department]; !ok {
			deptOrder = append(deptOrder, e.Department)
			deptStats[e.Department] = &report.TodayStats{}
		}
		addToday(deptStats[e.Department], day.Status)

		if day.Lateness != nil && day.Lateness.IsLate {
			resp.LateArrivals = append(resp.LateArrivals, report.LateArrival{
				EmployeeID:   e.ID,
				EmployeeName: e.FullName,
				Department:   e.Department,
				CheckInAt:    day.Record.CheckInAt.Format(time.RFC3339),
				MinutesLate:  day.Lateness.MinutesLate,
			})
		}
		if day.Status == resolution.DayAbsent || day.Status == resolution.DayNoRecord {
			resp.Absentees = append(resp.Absentees, report.Absentee{
				EmployeeID:   e.ID,
				EmployeeName: e.FullName,
				Department:   e.Department,
				Status:       day.Status,
			})
		}
	}
	resp.Today.AttendanceRate = attendanceRate(resp.Today)

	for _, dept := range deptOrder {
		stats := *deptStats[dept]
		stats.AttendanceRate = attendanceRate(stats)
		resp.Departments = append(resp.Departments, report.DepartmentStats{Department: dept, TodayStats: stats})
	}

	counts, err := s.LeaveRequestRepository.CountByStatus(ctx, nil)
	if err != nil {
		return report.ManagerDashboardResponse{}, fmt.Errorf("failed to count leave requests: %w", err)
	}
	resp.PendingLeaves = counts.Pending

	return resp, nil
}
