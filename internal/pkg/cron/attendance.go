package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

// AbsenceNotifier is told who was marked absent for a day.
type AbsenceNotifier interface {
	MarkedAbsent(ctx context.Context, day time.Time, employees []employee.Employee)
}

type AttendanceJobsConfig struct {
	MarkAbsentSpec string
	SkipWeekends   bool
}

type AttendanceJobs struct {
	tx             database.Transactor
	attendanceRepo attendance.AttendanceRepository
	leaveRepo      leave.LeaveRequestRepository
	employeeRepo   employee.EmployeeRepository
	notifier       AbsenceNotifier
	clock          clock.Clock
	config         AttendanceJobsConfig
}

func NewAttendanceJobs(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	leaveRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	notifier AbsenceNotifier,
	clk clock.Clock,
	cfg AttendanceJobsConfig,
) *AttendanceJobs {
	if cfg.MarkAbsentSpec == "" {
		cfg.MarkAbsentSpec = "5 0 * * *"
	}
	return &AttendanceJobs{
		tx:             tx,
		attendanceRepo: attendanceRepo,
		leaveRepo:      leaveRepo,
		employeeRepo:   employeeRepo,
		notifier:       notifier,
		clock:          clk,
		config:         cfg,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddJob("mark_absent_employees", j.config.MarkAbsentSpec, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees closes yesterday.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := clock.StartOfDay(j.clock.Now()).AddDate(0, 0, -1)
	_, err := j.MarkAbsentOn(ctx, yesterday)
	return err
}

// MarkAbsentOn writes an absent record for every active employee with neither an
// attendance record nor a pending or approved leave on day. Existing records are never
// touched. It returns the employees that were marked.
func (j *AttendanceJobs) MarkAbsentOn(ctx context.Context, day time.Time) ([]employee.Employee, error) {
	day = clock.StartOfDay(day)
	if j.config.SkipWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
		slog.Info("Cron: Skipping mark absent on weekend", "date", clock.DateKey(day))
		return nil, nil
	}

	slog.Info("Cron: Starting mark absent employees job", "date", clock.DateKey(day))

	employees, err := j.employeeRepo.ListActive(ctx, employee.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	if len(employees) == 0 {
		return nil, nil
	}

	var marked []employee.Employee
	err = j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		records, err := j.attendanceRepo.List(ctx, attendance.RecordFilter{From: day, To: day})
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		leaves, err := j.leaveRepo.List(ctx, leave.ListFilter{
			Statuses:    []leave.LeaveRequestStatus{leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved},
			OverlapFrom: &day,
			OverlapTo:   &day,
		})
		if err != nil {
			return fmt.Errorf("failed to list leave requests: %w", err)
		}

		covered := make(map[string]bool, len(records)+len(leaves))
		for _, r := range records {
			covered[r.EmployeeID] = true
		}
		for _, l := range leaves {
			covered[l.EmployeeID] = true
		}

		var ids []string
		for _, e := range employees {
			if covered[e.ID] {
				continue
			}
			ids = append(ids, e.ID)
			marked = append(marked, e)
		}

		created, err := j.attendanceRepo.CreateAbsences(ctx, ids, day)
		if err != nil {
			return err
		}
		if created != len(ids) {
			slog.Warn("Cron: Some absences already existed", "expected", len(ids), "created", created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Cron: Mark absent completed", "date", clock.DateKey(day), "marked_count", len(marked))
	if len(marked) > 0 && j.notifier != nil {
		j.notifier.MarkedAbsent(ctx, day, marked)
	}
	return marked, nil
}
