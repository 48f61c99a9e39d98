package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	sideEffector leave.SideEffector
	notifier     leave.Notifier
	clock        clock.Clock
}

func NewLeaveService(
	tx database.Transactor,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	sideEffector leave.SideEffector,
	notifier leave.Notifier,
	clk clock.Clock,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: leaveRequestRepository,
		EmployeeRepository:     employeeRepository,
		sideEffector:           sideEffector,
		notifier:               notifier,
		clock:                  clk,
	}
}

// Apply implements leave.LeaveService.
func (l *LeaveServiceImpl) Apply(ctx context.Context, employeeID string, req leave.ApplyRequest) (leave.LeaveRequestResponse, error) {
	if strings.TrimSpace(employeeID) == "" {
		return leave.LeaveRequestResponse{}, employee.ErrEmployeeNotFound
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	loc := l.clock.Location()
	startDate, err := clock.ParseDate(req.StartDate, loc)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("invalid start_date format: %w", err)
	}
	endDate, err := clock.ParseDate(req.EndDate, loc)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("invalid end_date format: %w", err)
	}

	today := clock.StartOfDay(l.clock.Now())
	if startDate.Before(today) || endDate.Before(startDate) {
		return leave.LeaveRequestResponse{}, leave.ErrInvalidRange
	}

	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !emp.IsActive {
		return leave.LeaveRequestResponse{}, employee.ErrEmployeeInactive
	}

	created, err := l.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
		EmployeeID: employeeID,
		Type:       leave.LeaveType(req.Type),
		Reason:     req.Reason,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     leave.LeaveRequestStatusPending,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	if created.EmployeeName == nil {
		created.EmployeeName = &emp.FullName
	}

	slog.InfoContext(ctx, "leave request created",
		"leave_request_id", created.ID,
		"employee_id", employeeID,
		"leave_type", created.Type,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
	)

	l.notifier.LeaveApplied(ctx, created)
	return leave.NewLeaveRequestResponse(created), nil
}

// Decide implements leave.LeaveService.
func (l *LeaveServiceImpl) Decide(ctx context.Context, leaveID string, decider employee.Actor, outcome leave.LeaveRequestStatus, req leave.DecideRequest) (leave.LeaveRequestResponse, error) {
	if !decider.IsManager() {
		return leave.LeaveRequestResponse{}, employee.ErrManagerAccessRequired
	}
	if !outcome.IsDecision() {
		return leave.LeaveRequestResponse{}, leave.ErrInvalidOutcome
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !validator.IsValidUUID(leaveID) {
		return leave.LeaveRequestResponse{}, leave.ErrLeaveRequestNotFound
	}

	var decided leave.LeaveRequest
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByIDForUpdate(ctx, leaveID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrNotPending
		}

		decidedAt := l.clock.Now()
		request.Status = outcome
		request.DecidedBy = &decider.EmployeeID
		request.DecidedAt = &decidedAt
		if req.Comment != "" {
			request.DecisionComment = &req.Comment
		}

		if err := l.LeaveRequestRepository.UpdateDecision(ctx, request); err != nil {
			return err
		}

		if outcome == leave.LeaveRequestStatusApproved {
			if err := l.sideEffector.ApplyApproved(ctx, request); err != nil {
				return fmt.Errorf("failed to write leave attendance: %w", err)
			}
		}

		decided = request
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.InfoContext(ctx, "leave request decided",
		"leave_request_id", decided.ID,
		"employee_id", decided.EmployeeID,
		"decided_by", decider.EmployeeID,
		"status", decided.Status,
	)

	l.notifier.LeaveDecided(ctx, decided)
	return leave.NewLeaveRequestResponse(decided), nil
}

// Get implements leave.LeaveService.
func (l *LeaveServiceImpl) Get(ctx context.Context, leaveID string, viewer employee.Actor) (leave.LeaveRequestResponse, error) {
	// Ids are UUID columns in postgres; anything else cannot exist.
	if !validator.IsValidUUID(leaveID) {
		return leave.LeaveRequestResponse{}, leave.ErrLeaveRequestNotFound
	}
	request, err := l.LeaveRequestRepository.GetByID(ctx, leaveID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if request.EmployeeID != viewer.EmployeeID && !viewer.IsManager() {
		return leave.LeaveRequestResponse{}, leave.ErrForbidden
	}
	return leave.NewLeaveRequestResponse(request), nil
}

// ListMine implements leave.LeaveService.
func (l *LeaveServiceImpl) ListMine(ctx context.Context, employeeID string, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	filter.EmployeeID = &employeeID
	return l.list(ctx, filter)
}

// List implements leave.LeaveService.
func (l *LeaveServiceImpl) List(ctx context.Context, viewer employee.Actor, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if !viewer.IsManager() {
		return leave.ListLeaveRequestResponse{}, employee.ErrManagerAccessRequired
	}
	return l.list(ctx, filter)
}

func (l *LeaveServiceImpl) list(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	listFilter, err := l.toListFilter(filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, err := l.LeaveRequestRepository.List(ctx, listFilter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, leave.NewLeaveRequestResponse(r))
	}
	return leave.ListLeaveRequestResponse{
		Requests: responses,
		Total:    len(responses),
	}, nil
}

func (l *LeaveServiceImpl) toListFilter(filter leave.LeaveRequestFilter) (leave.ListFilter, error) {
	var listFilter leave.ListFilter
	if filter.EmployeeID != nil {
		listFilter.EmployeeIDs = []string{*filter.EmployeeID}
	}
	if filter.Status != nil {
		listFilter.Statuses = []leave.LeaveRequestStatus{leave.LeaveRequestStatus(*filter.Status)}
	}

	parse := func(s *string) (*time.Time, error) {
		if s == nil {
			return nil, nil
		}
		t, err := clock.ParseDate(*s, l.clock.Location())
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	var err error
	if listFilter.OverlapFrom, err = parse(filter.From); err != nil {
		return leave.ListFilter{}, fmt.Errorf("invalid from date: %w", err)
	}
	if listFilter.OverlapTo, err = parse(filter.To); err != nil {
		return leave.ListFilter{}, fmt.Errorf("invalid to date: %w", err)
	}
	return listFilter, nil
}

// Stats implements leave.LeaveService.
func (l *LeaveServiceImpl) Stats(ctx context.Context, employeeID *string) (leave.StatsResponse, error) {
	if employeeID != nil && !validator.IsValidUUID(*employeeID) {
		return leave.StatsResponse{}, validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		}}
	}
	stats, err := l.LeaveRequestRepository.CountByStatus(ctx, employeeID)
	if err != nil {
		return leave.StatsResponse{}, fmt.Errorf("failed to get leave stats: %w", err)
	}
	return leave.StatsResponse{
		Total:    stats.Total,
		Pending:  stats.Pending,
		Approved: stats.Approved,
		Rejected: stats.Rejected,
	}, nil
}
