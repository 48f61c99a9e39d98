package report

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/export"
)

var exportHeader = []string{
	"Date", "Employee Name", "Employee ID", "Department",
	"Check In", "Check Out", "Status", "Total Hours",
}

type exportRow struct {
	employee employee.Employee
	day      resolution.Day
}

func (r exportRow) cells() []string {
	checkIn, checkOut := "", ""
	if r.day.Record != nil {
		if r.day.Record.CheckInAt != nil {
			checkIn = r.day.Record.CheckInAt.Format("15:04:05")
		}
		if r.day.Record.CheckOutAt != nil {
			checkOut = r.day.Record.CheckOutAt.Format("15:04:05")
		}
	}
	code := r.employee.EmployeeCode
	if code == "" {
		code = r.employee.ID
	}
	return []string{
		clock.DateKey(r.day.Date),
		r.employee.FullName,
		code,
		r.employee.Department,
		checkIn,
		checkOut,
		string(r.day.Status),
		r.day.TotalHours.StringFixed(2),
	}
}

// Export implements report.ReportService.
func (s *ReportServiceImpl) Export(ctx context.Context, viewer employee.Actor, req report.ExportRequest) (report.ExportFile, error) {
	if !viewer.IsManager() {
		return report.ExportFile{}, employee.ErrManagerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return report.ExportFile{}, err
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return report.ExportFile{}, err
	}
	from, to, err := s.parseRange(req.RangeRequest)
	if err != nil {
		return report.ExportFile{}, err
	}

	employees, err := s.team(ctx, viewer, employee.Filter{Department: req.Department, EmployeeID: req.EmployeeID})
	if err != nil {
		return report.ExportFile{}, err
	}
	resolved, err := s.resolveEmployees(ctx, employees, from, to)
	if err != nil {
		return report.ExportFile{}, err
	}

	var rows []exportRow
	for _, r := range resolved {
		for _, d := range r.days {
			rows = append(rows, exportRow{employee: r.employee, day: d})
		}
	}
	slices.SortStableFunc(rows, func(a, b exportRow) int {
		return cmp.Or(
			a.day.Date.Compare(b.day.Date),
			cmp.Compare(a.employee.FullName, b.employee.FullName),
		)
	})

	table := export.Table{Sheet: "Attendance", Header: exportHeader, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		table.Rows[i] = r.cells()
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		return report.ExportFile{}, fmt.Errorf("failed to render export: %w", err)
	}

	return report.ExportFile{
		Filename:    fmt.Sprintf("attendance_%s_%s%s", clock.DateKey(from), clock.DateKey(to), format.Extension()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
