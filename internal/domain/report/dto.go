package report

import (
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// MaxRangeDays bounds history and export ranges.
const MaxRangeDays = 366

// ========================================
// REQUESTS
// ========================================

type PeriodRequest struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Department *string `json:"department,omitempty"`
}

// Validate fills a zero year/month from now.
func (r *PeriodRequest) Validate(now time.Time) error {
	if r.Year == 0 {
		r.Year = now.Year()
	}
	if r.Month == 0 {
		r.Month = int(now.Month())
	}
	if r.Department != nil {
		d := strings.TrimSpace(*r.Department)
		if d == "" {
			r.Department = nil
		} else {
			r.Department = &d
		}
	}

	var errs validator.ValidationErrors
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: ErrInvalidMonth.Error()})
	}
	if r.Year < 2000 || r.Year > now.Year()+1 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: ErrInvalidYear.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RangeRequest struct {
	From string `json:"from" validate:"required,date"`
	To   string `json:"to" validate:"required,date"`
}

func (r *RangeRequest) Validate() error {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type ExportRequest struct {
	RangeRequest
	Format     string  `json:"format" validate:"omitempty,oneof=csv xlsx"`
	Department *string `json:"department,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty" validate:"omitempty,uuid"`
}

func (r *ExportRequest) Validate() error {
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

const (
	DefaultListLimit = 30
	MaxListLimit     = 100
)

// AttendanceListRequest filters the company-wide attendance listing. A missing To
// means today and a missing From means the first day of To's month.
type AttendanceListRequest struct {
	From       string  `json:"from" validate:"omitempty,date"`
	To         string  `json:"to" validate:"omitempty,date"`
	EmployeeID *string `json:"employee_id,omitempty" validate:"omitempty,uuid"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       int     `json:"page" validate:"min=1"`
	Limit      int     `json:"limit" validate:"min=1,max=100"`
}

func (r *AttendanceListRequest) Validate() error {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = DefaultListLimit
	}

	errs := validator.Struct(r)
	if r.Status != nil && !slices.Contains(resolution.AllDayStatuses(), resolution.DayStatus(*r.Status)) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, late, half-day, absent, leave-approved, leave-pending, no-record",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// RESPONSES
// ========================================

type DayResponse struct {
	Date           string               `json:"date"`
	Status         resolution.DayStatus `json:"status"`
	CheckInAt      *string              `json:"check_in_at"`
	CheckOutAt     *string              `json:"check_out_at"`
	TotalHours     float64              `json:"total_hours"`
	LeaveType      *string              `json:"leave_type,omitempty"`
	LeaveRequestID *string              `json:"leave_request_id,omitempty"`
	Lateness       *resolution.Lateness `json:"lateness,omitempty"`
}

type HistoryResponse struct {
	EmployeeID string        `json:"employee_id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Days       []DayResponse `json:"days"`
}

type AttendanceRow struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	EmployeeCode string `json:"employee_code"`
	Department   string `json:"department"`
	DayResponse
}

type AttendanceListResponse struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Rows  []AttendanceRow `json:"rows"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CalendarResponse struct {
	EmployeeID string        `json:"employee_id"`
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Days       []DayResponse `json:"days"`
}

type TallyResponse struct {
	Present          int     `json:"present"`
	Late             int     `json:"late"`
	HalfDay          int     `json:"half_day"`
	Absent           int     `json:"absent"`
	LeaveApproved    int     `json:"leave_approved"`
	LeavePending     int     `json:"leave_pending"`
	NoRecord         int     `json:"no_record"`
	TotalHours       float64 `json:"total_hours"`
	OnTimePercentage int     `json:"on_time_percentage"`
}

type SummaryResponse struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	TallyResponse
}

type EmployeeSummary struct {
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	EmployeeCode string        `json:"employee_code"`
	Department   string        `json:"department"`
	Summary      TallyResponse `json:"summary"`
}

type DepartmentSummary struct {
	Department string        `json:"department"`
	Employees  int           `json:"employees"`
	Summary    TallyResponse `json:"summary"`
}

type TeamSummaryResponse struct {
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	Department  *string             `json:"department,omitempty"`
	Employees   []EmployeeSummary   `json:"employees"`
	Departments []DepartmentSummary `json:"departments"`
	Total       TallyResponse       `json:"total"`
}

type CalendarCell struct {
	Date   string               `json:"date"`
	Status resolution.DayStatus `json:"status"`
}

type EmployeeCalendar struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	Department   string         `json:"department"`
	Days         []CalendarCell `json:"days"`
}

type TeamCalendarResponse struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Department *string            `json:"department,omitempty"`
	Employees  []EmployeeCalendar `json:"employees"`
}

type TodayStats struct {
	TotalEmployees int `json:"total_employees"`
	Present        int `json:"present"`
	Late           int `json:"late"`
	HalfDay        int `json:"half_day"`
	Absent         int `json:"absent"`
	OnLeave        int `json:"on_leave"`
	LeavePending   int `json:"leave_pending"`
	NoRecord       int `json:"no_record"`
	AttendanceRate int `json:"attendance_rate"`
}

type TrendPoint struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	HalfDay int    `json:"half_day"`
	Absent  int    `json:"absent"`
	OnLeave int    `json:"on_leave"`
}

type DepartmentStats struct {
	Department string `json:"department"`
	TodayStats
}

type LateArrival struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	CheckInAt    string `json:"check_in_at"`
	MinutesLate  int    `json:"minutes_late"`
}

type Absentee struct {
	EmployeeID   string               `json:"employee_id"`
	EmployeeName string               `json:"employee_name"`
	Department   string               `json:"department"`
	Status       resolution.DayStatus `json:"status"`
}

type ManagerDashboardResponse struct {
	Date          string            `json:"date"`
	Today         TodayStats        `json:"today"`
	Trend         []TrendPoint      `json:"trend"`
	Departments   []DepartmentStats `json:"departments"`
	LateArrivals  []LateArrival     `json:"late_arrivals"`
	Absentees     []Absentee        `json:"absentees"`
	PendingLeaves int               `json:"pending_leaves"`
}

type EmployeeDashboardResponse struct {
	Today    DayResponse         `json:"today"`
	Month    SummaryResponse     `json:"month"`
	LastWeek []DayResponse       `json:"last_week"`
	Leave    leave.StatsResponse `json:"leave"`
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
