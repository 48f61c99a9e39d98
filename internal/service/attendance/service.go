package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	clock  clock.Clock
	policy attendance.Policy
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	clk clock.Clock,
	policy attendance.Policy,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		clock:                clk,
		policy:               policy,
	}
}

// withConflictRetry runs fn in a transaction and re-runs it once after a uniqueness conflict.
func (a *AttendanceServiceImpl) withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = a.tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, attendance.ErrConflict) {
			return err
		}
		slog.WarnContext(ctx, "attendance write conflict", "attempt", attempt+1)
	}
	return fmt.Errorf("%w: %v", attendance.ErrTransient, err)
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, employeeID string) (attendance.RecordResponse, error) {
	if strings.TrimSpace(employeeID) == "" {
		return attendance.RecordResponse{}, attendance.ErrEmployeeIDRequired
	}

	now := a.clock.Now()
	today := clock.StartOfDay(now)
	status := a.policy.StatusAt(now)

	var saved attendance.Record
	err := a.withConflictRetry(ctx, func(ctx context.Context) error {
		existing, err := a.AttendanceRepository.GetByEmployeeAndDayForUpdate(ctx, employeeID, today)
		if err != nil && !errors.Is(err, attendance.ErrRecordNotFound) {
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}

		if errors.Is(err, attendance.ErrRecordNotFound) {
			saved, err = a.AttendanceRepository.Create(ctx, attendance.Record{
				EmployeeID: employeeID,
				Day:        today,
				CheckInAt:  &now,
				Status:     status,
				TotalHours: decimal.Zero,
			})
			return err
		}

		if existing.HasCheckedIn() {
			return attendance.ErrAlreadyCheckedIn
		}
		if existing.IsLeave() {
			return attendance.ErrOnApprovedLeave
		}

		// A record without a check-in, e.g. an absence written ahead of time.
		existing.CheckInAt = &now
		existing.CheckOutAt = nil
		existing.Status = status
		existing.LeaveType = nil
		existing.TotalHours = decimal.Zero
		saved, err = a.AttendanceRepository.Update(ctx, existing)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.InfoContext(ctx, "employee checked in",
		"employee_id", employeeID,
		"date", clock.DateKey(today),
		"status", saved.Status,
	)
	return attendance.NewRecordResponse(saved), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, employeeID string) (attendance.RecordResponse, error) {
	if strings.TrimSpace(employeeID) == "" {
		return attendance.RecordResponse{}, attendance.ErrEmployeeIDRequired
	}

	now := a.clock.Now()
	today := clock.StartOfDay(now)

	var saved attendance.Record
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := a.AttendanceRepository.GetByEmployeeAndDayForUpdate(ctx, employeeID, today)
		if err != nil {
			if errors.Is(err, attendance.ErrRecordNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}
		if !existing.HasCheckedIn() {
			return attendance.ErrNotCheckedIn
		}
		if existing.HasCheckedOut() {
			return attendance.ErrAlreadyCheckedOut
		}

		hours := a.policy.HoursBetween(*existing.CheckInAt, now)
		existing.CheckOutAt = &now
		existing.TotalHours = hours
		existing.Status = a.policy.StatusAfterCheckout(existing.Status, hours)

		saved, err = a.AttendanceRepository.Update(ctx, existing)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.InfoContext(ctx, "employee checked out",
		"employee_id", employeeID,
		"date", clock.DateKey(today),
		"status", saved.Status,
		"total_hours", saved.TotalHours.String(),
	)
	return attendance.NewRecordResponse(saved), nil
}

// Today implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Today(ctx context.Context, employeeID string) (attendance.TodayResponse, error) {
	if strings.TrimSpace(employeeID) == "" {
		return attendance.TodayResponse{}, attendance.ErrEmployeeIDRequired
	}

	today := clock.StartOfDay(a.clock.Now())
	rec, err := a.AttendanceRepository.GetByEmployeeAndDay(ctx, employeeID, today)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.TodayResponse{
				RecordResponse: attendance.RecordResponse{
					EmployeeID: employeeID,
					Date:       clock.DateKey(today),
					Status:     attendance.StatusAbsent,
				},
				Recorded: false,
			}, nil
		}
		return attendance.TodayResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	return attendance.TodayResponse{
		RecordResponse: attendance.NewRecordResponse(rec),
		Recorded:       true,
	}, nil
}
