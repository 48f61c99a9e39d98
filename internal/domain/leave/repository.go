package leave

import (
	"context"
	"time"
)

// ListFilter narrows leave requests. Zero values mean no restriction.
// OverlapFrom/OverlapTo keep requests whose range intersects [OverlapFrom, OverlapTo].
type ListFilter struct {
	EmployeeIDs []string
	Statuses    []LeaveRequestStatus
	OverlapFrom *time.Time
	OverlapTo   *time.Time
}

type Stats struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	UpdateDecision(ctx context.Context, request LeaveRequest) error
	List(ctx context.Context, filter ListFilter) ([]LeaveRequest, error)
	CountByStatus(ctx context.Context, employeeID *string) (Stats, error)
}
