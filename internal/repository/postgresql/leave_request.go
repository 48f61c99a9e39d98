package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	lr.id, lr.employee_id, lr.leave_type, lr.reason,
	to_char(lr.start_date, 'YYYY-MM-DD'), to_char(lr.end_date, 'YYYY-MM-DD'),
	lr.status, lr.decided_by, lr.decided_at, lr.decision_comment,
	lr.created_at, lr.updated_at, e.full_name`

type leaveRequestRepositoryImpl struct {
	db  *database.DB
	loc *time.Location
}

func NewLeaveRequestRepository(db *database.DB, loc *time.Location) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db, loc: loc}
}

func (r *leaveRequestRepositoryImpl) scan(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		lr         leave.LeaveRequest
		start, end string
		name       string
	)
	err := row.Scan(
		&lr.ID,
		&lr.EmployeeID,
		&lr.Type,
		&lr.Reason,
		&start,
		&end,
		&lr.Status,
		&lr.DecidedBy,
		&lr.DecidedAt,
		&lr.DecisionComment,
		&lr.CreatedAt,
		&lr.UpdatedAt,
		&name,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if lr.StartDate, err = clock.ParseDate(start, r.loc); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if lr.EndDate, err = clock.ParseDate(end, r.loc); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	lr.EmployeeName = &name
	return lr, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH lr AS (
			INSERT INTO leave_requests (
				employee_id, leave_type, reason, start_date, end_date,
				status, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4::date, $5::date,
				$6, NOW(), NOW()
			)
			RETURNING *
		)
		SELECT ` + leaveRequestColumns + `
		FROM lr
		INNER JOIN employees e ON lr.employee_id = e.id`

	created, err := r.scan(q.QueryRow(ctx, query,
		request.EmployeeID,
		request.Type,
		request.Reason,
		clock.DateKey(request.StartDate.In(r.loc)),
		clock.DateKey(request.EndDate.In(r.loc)),
		request.Status,
	))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return created, nil
}

func (r *leaveRequestRepositoryImpl) getByID(ctx context.Context, id string, lock bool) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id
		WHERE lr.id = $1`
	if lock {
		query += ` FOR UPDATE OF lr`
	}

	lr, err := r.scan(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, err
	}
	return lr, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getByID(ctx, id, true)
}

// UpdateDecision implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateDecision(ctx context.Context, request leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests SET
			status = $2,
			decided_by = $3,
			decided_at = $4,
			decision_comment = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	tag, err := q.Exec(ctx, query,
		request.ID,
		request.Status,
		request.DecidedBy,
		request.DecidedAt,
		request.DecisionComment,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave decision: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return leave.ErrNotPending
	}
	return nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	if len(filter.EmployeeIDs) > 0 {
		args = append(args, filter.EmployeeIDs)
		conditions = append(conditions, fmt.Sprintf("lr.employee_id = ANY($%d::uuid[])", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("lr.status = ANY($%d::text[])", len(args)))
	}
	if filter.OverlapTo != nil {
		args = append(args, clock.DateKey(filter.OverlapTo.In(r.loc)))
		conditions = append(conditions, fmt.Sprintf("lr.start_date <= $%d::date", len(args)))
	}
	if filter.OverlapFrom != nil {
		args = append(args, clock.DateKey(filter.OverlapFrom.In(r.loc)))
		conditions = append(conditions, fmt.Sprintf("lr.end_date >= $%d::date", len(args)))
	}

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY lr.created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		lr, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}

// CountByStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) CountByStatus(ctx context.Context, employeeID *string) (leave.Stats, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM leave_requests
		WHERE $1::uuid IS NULL OR employee_id = $1::uuid`

	var stats leave.Stats
	err := q.QueryRow(ctx, query, employeeID).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected)
	if err != nil {
		return leave.Stats{}, fmt.Errorf("failed to count leave requests: %w", err)
	}
	return stats, nil
}
