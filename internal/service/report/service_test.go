package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func at(day, h, m int) time.Time {
	return time.Date(2024, time.March, day, h, m, 0, 0, jakarta)
}

type fixture struct {
	service report.ReportService
	adi     employee.Employee
	bela    employee.Employee
	citra   employee.Employee
	manager employee.Actor
	worker  employee.Actor
	sickID  string
}

// newFixture builds March 2024 with "today" = the 13th:
//
//	Adi   (Engineering): present 11th 09:00-17:00, late 12th 09:45, late 13th 09:40
//	Bela  (Engineering): approved sick leave 11th-12th, pending annual leave 14th-15th
//	Citra (Sales):       absent 12th
//	Dewi  (Management):  manager, nothing recorded
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(jakarta)

	adi := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-001", FullName: "Adi", Department: "Engineering", IsActive: true})
	bela := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-002", FullName: "Bela", Department: "Engineering", IsActive: true})
	citra := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-003", FullName: "Citra", Department: "Sales", IsActive: true})
	dewi := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-004", FullName: "Dewi", Department: "Management", Role: employee.RoleManager, IsActive: true})
	store.AddEmployee(employee.Employee{EmployeeCode: "EMP-005", FullName: "Gone", Department: "Sales", IsActive: false})

	create := func(r attendance.Record) {
		t.Helper()
		_, err := store.Attendance().Create(ctx, r)
		require.NoError(t, err)
	}
	in11, out11 := at(11, 9, 0), at(11, 17, 0)
	create(attendance.Record{EmployeeID: adi.ID, Day: at(11, 0, 0), CheckInAt: &in11, CheckOutAt: &out11, Status: attendance.StatusPresent, TotalHours: decimal.NewFromInt(8)})
	in12 := at(12, 9, 45)
	create(attendance.Record{EmployeeID: adi.ID, Day: at(12, 0, 0), CheckInAt: &in12, Status: attendance.StatusLate, TotalHours: decimal.Zero})
	in13 := at(13, 9, 40)
	create(attendance.Record{EmployeeID: adi.ID, Day: at(13, 0, 0), CheckInAt: &in13, Status: attendance.StatusLate, TotalHours: decimal.Zero})

	_, err := store.Attendance().CreateAbsences(ctx, []string{citra.ID}, at(12, 0, 0))
	require.NoError(t, err)

	sick, err := store.Leaves().Create(ctx, leave.LeaveRequest{
		EmployeeID: bela.ID, Type: leave.TypeSick, Reason: "flu",
		StartDate: at(11, 0, 0), EndDate: at(12, 0, 0), Status: leave.LeaveRequestStatusPending,
	})
	require.NoError(t, err)
	decidedAt := at(11, 8, 0)
	sick.Status = leave.LeaveRequestStatusApproved
	sick.DecidedBy = &dewi.ID
	sick.DecidedAt = &decidedAt
	require.NoError(t, store.Leaves().UpdateDecision(ctx, sick))
	for d := range clock.DaysInRange(sick.StartDate, sick.EndDate) {
		_, err := store.Attendance().UpsertLeave(ctx, bela.ID, d, string(sick.Type))
		require.NoError(t, err)
	}

	_, err = store.Leaves().Create(ctx, leave.LeaveRequest{
		EmployeeID: bela.ID, Type: leave.TypeAnnual, Reason: "trip",
		StartDate: at(14, 0, 0), EndDate: at(15, 0, 0), Status: leave.LeaveRequestStatusPending,
	})
	require.NoError(t, err)

	svc := NewReportService(store.Attendance(), store.Leaves(), store.Employees(), clock.NewFixed(at(13, 10, 0)), attendance.DefaultPolicy())
	return fixture{
		service: svc,
		adi:     adi,
		bela:    bela,
		citra:   citra,
		manager: employee.Actor{EmployeeID: dewi.ID, Role: employee.RoleManager},
		worker:  employee.Actor{EmployeeID: adi.ID, Role: employee.RoleEmployee},
		sickID:  sick.ID,
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.History(context.Background(), f.adi.ID, report.RangeRequest{From: "2024-03-10", To: "2024-03-13"})
	require.NoError(t, err)
	require.Len(t, resp.Days, 4)

	assert.Equal(t, "2024-03-13", resp.Days[0].Date)
	assert.Equal(t, resolution.DayLate, resp.Days[0].Status)
	require.NotNil(t, resp.Days[0].Lateness)
	assert.Equal(t, 10, resp.Days[0].Lateness.MinutesLate)
	assert.Equal(t, "09:30", resp.Days[0].Lateness.ExpectedTime)

	assert.Equal(t, resolution.DayLate, resp.Days[1].Status)
	assert.Equal(t, 15, resp.Days[1].Lateness.MinutesLate)

	assert.Equal(t, resolution.DayPresent, resp.Days[2].Status)
	assert.Equal(t, 8.0, resp.Days[2].TotalHours)
	assert.False(t, resp.Days[2].Lateness.IsLate)

	assert.Equal(t, resolution.DayNoRecord, resp.Days[3].Status)
	assert.Nil(t, resp.Days[3].Lateness)
}

func TestHistory_InvalidRanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.History(ctx, f.adi.ID, report.RangeRequest{From: "2024-03-13", To: "2024-03-01"})
	assert.ErrorIs(t, err, report.ErrInvalidDateRange)

	_, err = f.service.History(ctx, f.adi.ID, report.RangeRequest{From: "2022-01-01", To: "2024-03-01"})
	assert.ErrorIs(t, err, report.ErrRangeTooLarge)

	_, err = f.service.History(ctx, f.adi.ID, report.RangeRequest{From: "yesterday", To: "2024-03-01"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestDayDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day, err := f.service.DayDetail(ctx, f.bela.ID, "2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, resolution.DayLeaveApproved, day.Status)
	require.NotNil(t, day.LeaveType)
	assert.Equal(t, "sick", *day.LeaveType)
	assert.Nil(t, day.CheckInAt)

	pending, err := f.service.DayDetail(ctx, f.bela.ID, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, resolution.DayLeavePending, pending.Status)
	require.NotNil(t, pending.LeaveRequestID)
	require.NotNil(t, pending.LeaveType)
	assert.Equal(t, "annual", *pending.LeaveType)

	absent, err := f.service.DayDetail(ctx, f.citra.ID, "2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, resolution.DayAbsent, absent.Status)

	_, err = f.service.DayDetail(ctx, f.citra.ID, "12/03/2024")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.Calendar(context.Background(), f.bela.ID, report.PeriodRequest{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, resp.Days, 31)
	assert.Equal(t, "2024-03-01", resp.Days[0].Date)
	assert.Equal(t, "2024-03-31", resp.Days[30].Date)
	assert.Equal(t, resolution.DayLeaveApproved, resp.Days[10].Status)
	assert.Equal(t, resolution.DayLeaveApproved, resp.Days[11].Status)
	assert.Equal(t, resolution.DayNoRecord, resp.Days[12].Status)
	assert.Equal(t, resolution.DayLeavePending, resp.Days[13].Status)
	assert.Equal(t, resolution.DayLeavePending, resp.Days[14].Status)
	assert.Equal(t, resolution.DayNoRecord, resp.Days[15].Status)
}

func TestCalendar_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.Calendar(ctx, f.adi.ID, report.PeriodRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, 3, resp.Month)

	_, err = f.service.Calendar(ctx, f.adi.ID, report.PeriodRequest{Year: 2024, Month: 13})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "month")
}

func TestMonthlySummary(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.MonthlySummary(context.Background(), f.adi.ID, report.PeriodRequest{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Present)
	assert.Equal(t, 2, resp.Late)
	assert.Equal(t, 10, resp.NoRecord)
	assert.Equal(t, 8.0, resp.TotalHours)
	assert.Equal(t, 33, resp.OnTimePercentage)
}

func TestTeamSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.TeamSummary(ctx, f.worker, report.PeriodRequest{Year: 2024, Month: 3})
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	resp, err := f.service.TeamSummary(ctx, f.manager, report.PeriodRequest{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Employees, 4)
	require.Len(t, resp.Departments, 3)
	assert.Equal(t, "Engineering", resp.Departments[0].Department)
	assert.Equal(t, 2, resp.Departments[0].Employees)
	assert.Equal(t, 2, resp.Departments[0].Summary.LeaveApproved)
	assert.Equal(t, 1, resp.Total.Absent)
	assert.Equal(t, 2, resp.Total.LeaveApproved)
	assert.Equal(t, 0, resp.Total.LeavePending)

	engineering := "Engineering"
	filtered, err := f.service.TeamSummary(ctx, f.manager, report.PeriodRequest{Year: 2024, Month: 3, Department: &engineering})
	require.NoError(t, err)
	assert.Len(t, filtered.Employees, 2)
	require.Len(t, filtered.Departments, 1)
	assert.Equal(t, filtered.Departments[0].Summary, filtered.Total)

	future, err := f.service.TeamSummary(ctx, f.manager, report.PeriodRequest{Year: 2024, Month: 4})
	require.NoError(t, err)
	assert.Empty(t, future.Employees)
}

func TestTeamCalendar(t *testing.T) {
	f := newFixture(t)

	sales := "Sales"
	resp, err := f.service.TeamCalendar(context.Background(), f.manager, report.PeriodRequest{Year: 2024, Month: 3, Department: &sales})
	require.NoError(t, err)
	require.Len(t, resp.Employees, 1)
	assert.Equal(t, f.citra.ID, resp.Employees[0].EmployeeID)
	require.Len(t, resp.Employees[0].Days, 31)
	assert.Equal(t, resolution.DayAbsent, resp.Employees[0].Days[11].Status)
}

func TestManagerDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ManagerDashboard(ctx, f.worker)
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	resp, err := f.service.ManagerDashboard(ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-13", resp.Date)
	assert.Equal(t, report.TodayStats{TotalEmployees: 4, Late: 1, NoRecord: 3, AttendanceRate: 25}, resp.Today)

	require.Len(t, resp.Trend, 7)
	assert.Equal(t, "2024-03-07", resp.Trend[0].Date)
	assert.Equal(t, report.TrendPoint{Date: "2024-03-12", Late: 1, Absent: 1, OnLeave: 1}, resp.Trend[5])

	require.Len(t, resp.LateArrivals, 1)
	assert.Equal(t, f.adi.ID, resp.LateArrivals[0].EmployeeID)
	assert.Equal(t, 10, resp.LateArrivals[0].MinutesLate)

	assert.Len(t, resp.Absentees, 3)
	assert.Equal(t, 1, resp.PendingLeaves)

	require.Len(t, resp.Departments, 3)
	assert.Equal(t, "Engineering", resp.Departments[0].Department)
	assert.Equal(t, 50, resp.Departments[0].AttendanceRate)
}

func TestEmployeeDashboard(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.EmployeeDashboard(context.Background(), f.bela.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-13", resp.Today.Date)
	assert.Equal(t, resolution.DayNoRecord, resp.Today.Status)
	assert.Equal(t, 2, resp.Month.LeaveApproved)
	require.Len(t, resp.LastWeek, 7)
	assert.Equal(t, "2024-03-13", resp.LastWeek[0].Date)
	assert.Equal(t, resolution.DayLeaveApproved, resp.LastWeek[1].Status)
	assert.Equal(t, leave.StatsResponse{Total: 2, Pending: 1, Approved: 1}, resp.Leave)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engineering := "Engineering"

	_, err := f.service.Export(ctx, f.worker, report.ExportRequest{RangeRequest: report.RangeRequest{From: "2024-03-11", To: "2024-03-12"}})
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	file, err := f.service.Export(ctx, f.manager, report.ExportRequest{
		RangeRequest: report.RangeRequest{From: "2024-03-11", To: "2024-03-12"},
		Department:   &engineering,
	})
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-03-11_2024-03-12.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Date,Employee Name,Employee ID,Department,Check In,Check Out,Status,Total Hours", lines[0])
	assert.Equal(t, "2024-03-11,Adi,EMP-001,Engineering,09:00:00,17:00:00,present,8.00", lines[1])
	assert.Equal(t, "2024-03-11,Bela,EMP-002,Engineering,,,leave-approved,0.00", lines[2])
	assert.Equal(t, "2024-03-12,Adi,EMP-001,Engineering,09:45:00,,late,0.00", lines[3])

	xlsx, err := f.service.Export(ctx, f.manager, report.ExportRequest{
		RangeRequest: report.RangeRequest{From: "2024-03-11", To: "2024-03-12"},
		Format:       "XLSX",
	})
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-03-11_2024-03-12.xlsx", xlsx.Filename)
	assert.NotEmpty(t, xlsx.Data)

	_, err = f.service.Export(ctx, f.manager, report.ExportRequest{
		RangeRequest: report.RangeRequest{From: "2024-03-11", To: "2024-03-12"},
		Format:       "pdf",
	})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestListAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ListAttendance(ctx, f.worker, report.AttendanceListRequest{})
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	all, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{From: "2024-03-11", To: "2024-03-12"})
	require.NoError(t, err)
	assert.Equal(t, 8, all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, report.DefaultListLimit, all.Limit)
	require.Len(t, all.Rows, 8)
	assert.Equal(t, "2024-03-12", all.Rows[0].Date)
	assert.Equal(t, "2024-03-11", all.Rows[7].Date)

	absent := string(resolution.DayAbsent)
	filtered, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{From: "2024-03-11", To: "2024-03-12", Status: &absent})
	require.NoError(t, err)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, f.citra.ID, filtered.Rows[0].EmployeeID)
	assert.Equal(t, "Sales", filtered.Rows[0].Department)
	assert.Equal(t, "2024-03-12", filtered.Rows[0].Date)

	onLeave := string(resolution.DayLeaveApproved)
	leaves, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{From: "2024-03-11", To: "2024-03-12", Status: &onLeave, EmployeeID: &f.bela.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, leaves.Total)
	for _, row := range leaves.Rows {
		assert.Equal(t, "Bela", row.EmployeeName)
	}

	paged, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{From: "2024-03-11", To: "2024-03-12", Page: 3, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, paged.Total)
	assert.Len(t, paged.Rows, 2)

	beyond, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{From: "2024-03-11", To: "2024-03-12", Page: 9})
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 8, beyond.Total)

	month, err := f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", month.From)
	assert.Equal(t, "2024-03-13", month.To)
	assert.Equal(t, 13*4, month.Total)

	bogus := "on-vacation"
	_, err = f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{Status: &bogus})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	badID := "abc"
	_, err = f.service.ListAttendance(ctx, f.manager, report.AttendanceListRequest{EmployeeID: &badID})
	assert.ErrorAs(t, err, &verrs)
}

func TestEmployeeHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	window := report.RangeRequest{From: "2024-03-11", To: "2024-03-12"}

	_, err := f.service.EmployeeHistory(ctx, f.worker, f.bela.ID, window)
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	resp, err := f.service.EmployeeHistory(ctx, f.manager, f.bela.ID, window)
	require.NoError(t, err)
	assert.Equal(t, f.bela.ID, resp.EmployeeID)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, resolution.DayLeaveApproved, resp.Days[0].Status)
	assert.Equal(t, resolution.DayLeaveApproved, resp.Days[1].Status)

	_, err = f.service.EmployeeHistory(ctx, f.manager, "42", window)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.service.EmployeeHistory(ctx, f.manager, "6f1c9a52-4a8b-4bb0-9d1e-2a3c5d7e9f01", window)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
