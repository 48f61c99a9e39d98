package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/google/uuid"
)

type leaveRepository struct {
	store *Store
}

func (s *Store) Leaves() leave.LeaveRequestRepository {
	return leaveRepository{store: s}
}

// withName fills EmployeeName the way the postgres join does.
func withName(t *tables, lr leave.LeaveRequest) leave.LeaveRequest {
	if e, ok := t.employees[lr.EmployeeID]; ok {
		name := e.FullName
		lr.EmployeeName = &name
	}
	return lr
}

// Create implements leave.LeaveRequestRepository.
func (r leaveRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	err := r.store.write(ctx, func(t *tables) error {
		now := time.Now()
		request.ID = uuid.NewString()
		request.StartDate = clock.StartOfDay(request.StartDate.In(r.store.loc))
		request.EndDate = clock.StartOfDay(request.EndDate.In(r.store.loc))
		request.CreatedAt = now
		request.UpdatedAt = now
		request.EmployeeName = nil
		t.leaves[request.ID] = request
		request = withName(t, request)
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r leaveRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	var (
		lr leave.LeaveRequest
		ok bool
	)
	r.store.read(ctx, func(t *tables) {
		lr, ok = t.leaves[id]
		if ok {
			lr = withName(t, lr)
		}
	})
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return lr, nil
}

// GetByIDForUpdate relies on the transaction's writer lock.
func (r leaveRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.GetByID(ctx, id)
}

// UpdateDecision implements leave.LeaveRequestRepository.
func (r leaveRepository) UpdateDecision(ctx context.Context, request leave.LeaveRequest) error {
	return r.store.write(ctx, func(t *tables) error {
		existing, ok := t.leaves[request.ID]
		if !ok || existing.Status != leave.LeaveRequestStatusPending {
			return leave.ErrNotPending
		}
		existing.Status = request.Status
		existing.DecidedBy = request.DecidedBy
		existing.DecidedAt = request.DecidedAt
		existing.DecisionComment = request.DecisionComment
		existing.UpdatedAt = time.Now()
		t.leaves[request.ID] = existing
		return nil
	})
}

// List implements leave.LeaveRequestRepository.
func (r leaveRepository) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	var requests []leave.LeaveRequest
	r.store.read(ctx, func(t *tables) {
		for _, lr := range t.leaves {
			if len(filter.EmployeeIDs) > 0 && !slices.Contains(filter.EmployeeIDs, lr.EmployeeID) {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, lr.Status) {
				continue
			}
			if filter.OverlapTo != nil && clock.DateKey(lr.StartDate) > clock.DateKey(filter.OverlapTo.In(r.store.loc)) {
				continue
			}
			if filter.OverlapFrom != nil && clock.DateKey(lr.EndDate) < clock.DateKey(filter.OverlapFrom.In(r.store.loc)) {
				continue
			}
			requests = append(requests, withName(t, lr))
		}
	})
	slices.SortFunc(requests, func(a, b leave.LeaveRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return requests, nil
}

// CountByStatus implements leave.LeaveRequestRepository.
func (r leaveRepository) CountByStatus(ctx context.Context, employeeID *string) (leave.Stats, error) {
	var stats leave.Stats
	r.store.read(ctx, func(t *tables) {
		for _, lr := range t.leaves {
			if employeeID != nil && lr.EmployeeID != *employeeID {
				continue
			}
			stats.Total++
			switch lr.Status {
			case leave.LeaveRequestStatusPending:
				stats.Pending++
			case leave.LeaveRequestStatusApproved:
				stats.Approved++
			case leave.LeaveRequestStatusRejected:
				stats.Rejected++
			}
		}
	})
	return stats, nil
}
