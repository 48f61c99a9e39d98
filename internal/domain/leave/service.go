package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
)

type LeaveService interface {
	Apply(ctx context.Context, employeeID string, req ApplyRequest) (LeaveRequestResponse, error)
	Decide(ctx context.Context, leaveID string, decider employee.Actor, outcome LeaveRequestStatus, req DecideRequest) (LeaveRequestResponse, error)
	Get(ctx context.Context, leaveID string, viewer employee.Actor) (LeaveRequestResponse, error)
	ListMine(ctx context.Context, employeeID string, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	List(ctx context.Context, viewer employee.Actor, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	Stats(ctx context.Context, employeeID *string) (StatsResponse, error)
}

// SideEffector mirrors an approved leave into attendance records.
type SideEffector interface {
	ApplyApproved(ctx context.Context, request LeaveRequest) error
}

// Notifier delivers workflow events. Delivery problems are the notifier's to log;
// they never reach the workflow.
type Notifier interface {
	LeaveApplied(ctx context.Context, request LeaveRequest)
	LeaveDecided(ctx context.Context, request LeaveRequest)
}
