package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const attendanceColumns = `
	id, employee_id, to_char(day, 'YYYY-MM-DD'), check_in_at, check_out_at,
	status, leave_type, total_hours::text, created_at, updated_at`

type attendanceRepositoryImpl struct {
	db  *database.DB
	loc *time.Location
}

// NewAttendanceRepository stores days as DATE and returns them as midnight in loc.
func NewAttendanceRepository(db *database.DB, loc *time.Location) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db, loc: loc}
}

func (r *attendanceRepositoryImpl) scan(row pgx.Row) (attendance.Record, error) {
	var (
		rec   attendance.Record
		day   string
		hours string
	)
	err := row.Scan(
		&rec.ID,
		&rec.EmployeeID,
		&day,
		&rec.CheckInAt,
		&rec.CheckOutAt,
		&rec.Status,
		&rec.LeaveType,
		&hours,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	if rec.Day, err = clock.ParseDate(day, r.loc); err != nil {
		return attendance.Record{}, fmt.Errorf("invalid attendance day %q: %w", day, err)
	}
	if rec.TotalHours, err = decimal.NewFromString(hours); err != nil {
		return attendance.Record{}, fmt.Errorf("invalid total hours %q: %w", hours, err)
	}
	if rec.CheckInAt != nil {
		in := rec.CheckInAt.In(r.loc)
		rec.CheckInAt = &in
	}
	if rec.CheckOutAt != nil {
		out := rec.CheckOutAt.In(r.loc)
		rec.CheckOutAt = &out
	}
	return rec, nil
}

func (r *attendanceRepositoryImpl) getByEmployeeAndDay(ctx context.Context, employeeID string, day time.Time, lock bool) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND day = $2::date`
	if lock {
		query += ` FOR UPDATE`
	}

	rec, err := r.scan(q.QueryRow(ctx, query, employeeID, clock.DateKey(day.In(r.loc))))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, err
	}
	return rec, nil
}

// GetByEmployeeAndDay implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDay(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	return r.getByEmployeeAndDay(ctx, employeeID, day, false)
}

// GetByEmployeeAndDayForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDayForUpdate(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	return r.getByEmployeeAndDay(ctx, employeeID, day, true)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (
			employee_id, day, check_in_at, check_out_at,
			status, leave_type, total_hours, created_at, updated_at
		) VALUES (
			$1, $2::date, $3, $4,
			$5, $6, $7::numeric, NOW(), NOW()
		)
		ON CONFLICT (employee_id, day) DO NOTHING
		RETURNING ` + attendanceColumns

	created, err := r.scan(q.QueryRow(ctx, query,
		record.EmployeeID,
		clock.DateKey(record.Day.In(r.loc)),
		record.CheckInAt,
		record.CheckOutAt,
		record.Status,
		record.LeaveType,
		record.TotalHours.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.Record{}, attendance.ErrConflict
		}
		return attendance.Record{}, err
	}
	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Update(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendances SET
			check_in_at = $2,
			check_out_at = $3,
			status = $4,
			leave_type = $5,
			total_hours = $6::numeric,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + attendanceColumns

	updated, err := r.scan(q.QueryRow(ctx, query,
		record.ID,
		record.CheckInAt,
		record.CheckOutAt,
		record.Status,
		record.LeaveType,
		record.TotalHours.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, err
	}
	return updated, nil
}

// UpsertLeave implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) UpsertLeave(ctx context.Context, employeeID string, day time.Time, leaveType string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (
			employee_id, day, check_in_at, check_out_at,
			status, leave_type, total_hours, created_at, updated_at
		) VALUES (
			$1, $2::date, NULL, NULL,
			'leave', $3, 0, NOW(), NOW()
		)
		ON CONFLICT (employee_id, day) DO UPDATE SET
			check_in_at = NULL,
			check_out_at = NULL,
			status = 'leave',
			leave_type = EXCLUDED.leave_type,
			total_hours = 0,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	return r.scan(q.QueryRow(ctx, query, employeeID, clock.DateKey(day.In(r.loc)), leaveType))
}

// CreateAbsences implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CreateAbsences(ctx context.Context, employeeIDs []string, day time.Time) (int, error) {
	if len(employeeIDs) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (employee_id, day, status, total_hours, created_at, updated_at)
		SELECT unnest($1::uuid[]), $2::date, 'absent', 0, NOW(), NOW()
		ON CONFLICT (employee_id, day) DO NOTHING`

	tag, err := q.Exec(ctx, query, employeeIDs, clock.DateKey(day.In(r.loc)))
	if err != nil {
		return 0, fmt.Errorf("failed to insert absences: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE day BETWEEN $1::date AND $2::date`
	args := []interface{}{
		clock.DateKey(filter.From.In(r.loc)),
		clock.DateKey(filter.To.In(r.loc)),
	}
	if len(filter.EmployeeIDs) > 0 {
		query += ` AND employee_id = ANY($3::uuid[])`
		args = append(args, filter.EmployeeIDs)
	}
	query += ` ORDER BY day ASC, employee_id ASC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
