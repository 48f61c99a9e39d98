package report

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	attendance.AttendanceRepository
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	clock  clock.Clock
	policy attendance.Policy
}

func NewReportService(
	attendanceRepository attendance.AttendanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	clk clock.Clock,
	policy attendance.Policy,
) report.ReportService {
	return &ReportServiceImpl{
		AttendanceRepository:   attendanceRepository,
		LeaveRequestRepository: leaveRequestRepository,
		EmployeeRepository:     employeeRepository,
		clock:                  clk,
		policy:                 policy,
	}
}

type employeeDays struct {
	employee employee.Employee
	days     []resolution.Day
}

// resolveEmployees loads records and live leaves for employees over [from, to] and
// resolves every day. Output order follows employees.
func (s *ReportServiceImpl) resolveEmployees(ctx context.Context, employees []employee.Employee, from, to time.Time) ([]employeeDays, error) {
	if len(employees) == 0 {
		return nil, nil
	}

	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}

	records, err := s.AttendanceRepository.List(ctx, attendance.RecordFilter{EmployeeIDs: ids, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	leaves, err := s.LeaveRequestRepository.List(ctx, leave.ListFilter{
		EmployeeIDs: ids,
		Statuses:    []leave.LeaveRequestStatus{leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved},
		OverlapFrom: &from,
		OverlapTo:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	recordsByEmployee := make(map[string][]attendance.Record, len(employees))
	for _, r := range records {
		recordsByEmployee[r.EmployeeID] = append(recordsByEmployee[r.EmployeeID], r)
	}
	leavesByEmployee := make(map[string][]leave.LeaveRequest, len(employees))
	for _, l := range leaves {
		leavesByEmployee[l.EmployeeID] = append(leavesByEmployee[l.EmployeeID], l)
	}

	out := make([]employeeDays, len(employees))
	for i, e := range employees {
		out[i] = employeeDays{
			employee: e,
			days:     resolution.ResolveRange(from, to, recordsByEmployee[e.ID], leavesByEmployee[e.ID], s.policy),
		}
	}
	return out, nil
}

func (s *ReportServiceImpl) resolveOne(ctx context.Context, employeeID string, from, to time.Time) ([]resolution.Day, error) {
	resolved, err := s.resolveEmployees(ctx, []employee.Employee{{ID: employeeID}}, from, to)
	if err != nil {
		return nil, err
	}
	return resolved[0].days, nil
}

func (s *ReportServiceImpl) parseRange(req report.RangeRequest) (time.Time, time.Time, error) {
	loc := s.clock.Location()
	from, err := clock.ParseDate(req.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, validator.ValidationErrors{{Field: "from", Message: "from must be in YYYY-MM-DD format"}}
	}
	to, err := clock.ParseDate(req.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, validator.ValidationErrors{{Field: "to", Message: "to must be in YYYY-MM-DD format"}}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, report.ErrInvalidDateRange
	}
	if from.AddDate(0, 0, report.MaxRangeDays).Before(to) {
		return time.Time{}, time.Time{}, report.ErrRangeTooLarge
	}
	return from, to, nil
}

// period returns the month bounds and the same range cut at today for tallies.
func (s *ReportServiceImpl) period(req *report.PeriodRequest) (start, end, tallyEnd time.Time, err error) {
	now := s.clock.Now()
	if err = req.Validate(now); err != nil {
		return
	}
	start, end, err = clock.MonthBounds(req.Year, req.Month, s.clock.Location())
	if err != nil {
		return
	}
	end = clock.StartOfDay(end)
	tallyEnd = end
	if today := clock.StartOfDay(now); today.Before(tallyEnd) {
		tallyEnd = today
	}
	return
}

func toDayResponse(d resolution.Day) report.DayResponse {
	resp := report.DayResponse{
		Date:       clock.DateKey(d.Date),
		Status:     d.Status,
		TotalHours: d.TotalHours.InexactFloat64(),
		Lateness:   d.Lateness,
	}
	if d.Record != nil {
		resp.CheckInAt = attendance.FormatInstant(d.Record.CheckInAt)
		resp.CheckOutAt = attendance.FormatInstant(d.Record.CheckOutAt)
		resp.LeaveType = d.Record.LeaveType
	}
	if d.Leave != nil {
		id := d.Leave.ID
		resp.LeaveRequestID = &id
		if resp.LeaveType == nil {
			t := string(d.Leave.Type)
			resp.LeaveType = &t
		}
	}
	return resp
}

func toDayResponses(days []resolution.Day) []report.DayResponse {
	out := make([]report.DayResponse, len(days))
	for i, d := range days {
		out[i] = toDayResponse(d)
	}
	return out
}

func toTallyResponse(t resolution.Tally) report.TallyResponse {
	return report.TallyResponse{
		Present:          t.Present,
		Late:             t.Late,
		HalfDay:          t.HalfDay,
		Absent:           t.Absent,
		LeaveApproved:    t.LeaveApproved,
		LeavePending:     t.LeavePending,
		NoRecord:         t.NoRecord,
		TotalHours:       t.TotalHours.Round(2).InexactFloat64(),
		OnTimePercentage: t.OnTimePercentage(),
	}
}

// tallyUntil reduces the days on or before end.
func tallyUntil(days []resolution.Day, end time.Time) resolution.Tally {
	var t resolution.Tally
	for _, d := range days {
		if d.Date.After(end) {
			break
		}
		t.Add(d)
	}
	return t
}

// History implements report.ReportService.
func (s *ReportServiceImpl) History(ctx context.Context, employeeID string, req report.RangeRequest) (report.HistoryResponse, error) {
	if err := req.Validate(); err != nil {
		return report.HistoryResponse{}, err
	}
	from, to, err := s.parseRange(req)
	if err != nil {
		return report.HistoryResponse{}, err
	}

	days, err := s.resolveOne(ctx, employeeID, from, to)
	if err != nil {
		return report.HistoryResponse{}, err
	}
	slices.Reverse(days)

	return report.HistoryResponse{
		EmployeeID: employeeID,
		From:       clock.DateKey(from),
		To:         clock.DateKey(to),
		Days:       toDayResponses(days),
	}, nil
}

// DayDetail implements report.ReportService.
func (s *ReportServiceImpl) DayDetail(ctx context.Context, employeeID string, date string) (report.DayResponse, error) {
	day, err := clock.ParseDate(date, s.clock.Location())
	if err != nil {
		return report.DayResponse{}, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
	}

	days, err := s.resolveOne(ctx, employeeID, day, day)
	if err != nil {
		return report.DayResponse{}, err
	}
	return toDayResponse(days[0]), nil
}

// Calendar implements report.ReportService.
func (s *ReportServiceImpl) Calendar(ctx context.Context, employeeID string, req report.PeriodRequest) (report.CalendarResponse, error) {
	start, end, _, err := s.period(&req)
	if err != nil {
		return report.CalendarResponse{}, err
	}

	days, err := s.resolveOne(ctx, employeeID, start, end)
	if err != nil {
		return report.CalendarResponse{}, err
	}

	return report.CalendarResponse{
		EmployeeID: employeeID,
		Year:       req.Year,
		Month:      req.Month,
		Days:       toDayResponses(days),
	}, nil
}

// MonthlySummary implements report.ReportService. Days after today are not counted.
func (s *ReportServiceImpl) MonthlySummary(ctx context.Context, employeeID string, req report.PeriodRequest) (report.SummaryResponse, error) {
	start, end, tallyEnd, err := s.period(&req)
	if err != nil {
		return report.SummaryResponse{}, err
	}

	days, err := s.resolveOne(ctx, employeeID, start, end)
	if err != nil {
		return report.SummaryResponse{}, err
	}

	return report.SummaryResponse{
		EmployeeID:    employeeID,
		Year:          req.Year,
		Month:         req.Month,
		TallyResponse: toTallyResponse(tallyUntil(days, tallyEnd)),
	}, nil
}

// EmployeeDashboard implements report.ReportService.
func (s *ReportServiceImpl) EmployeeDashboard(ctx context.Context, employeeID string) (report.EmployeeDashboardResponse, error) {
	now := s.clock.Now()
	today := clock.StartOfDay(now)

	monthStart, _, err := clock.MonthBounds(now.Year(), int(now.Month()), s.clock.Location())
	if err != nil {
		return report.EmployeeDashboardResponse{}, err
	}
	weekStart := today.AddDate(0, 0, -6)
	from := monthStart
	if weekStart.Before(from) {
		from = weekStart
	}

	var (
		days  []resolution.Day
		stats leave.Stats
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = s.resolveOne(gCtx, employeeID, from, today)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.LeaveRequestRepository.CountByStatus(gCtx, &employeeID)
		if err != nil {
			return fmt.Errorf("failed to count leave requests: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.EmployeeDashboardResponse{}, err
	}

	var (
		month    resolution.Tally
		lastWeek []resolution.Day
	)
	for _, d := range days {
		if !d.Date.Before(monthStart) {
			month.Add(d)
		}
		if !d.Date.Before(weekStart) {
			lastWeek = append(lastWeek, d)
		}
	}
	slices.Reverse(lastWeek)

	return report.EmployeeDashboardResponse{
		Today: toDayResponse(days[len(days)-1]),
		Month: report.SummaryResponse{
			EmployeeID:    employeeID,
			Year:          now.Year(),
			Month:         int(now.Month()),
			TallyResponse: toTallyResponse(month),
		},
		LastWeek: toDayResponses(lastWeek),
		Leave: leave.StatsResponse{
			Total:    stats.Total,
			Pending:  stats.Pending,
			Approved: stats.Approved,
			Rejected: stats.Rejected,
		},
	}, nil
}
