package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	store *Store
}

func (s *Store) Attendance() attendance.AttendanceRepository {
	return attendanceRepository{store: s}
}

func (r attendanceRepository) key(employeeID string, day time.Time) string {
	return employeeID + "|" + clock.DateKey(day.In(r.store.loc))
}

func (r attendanceRepository) get(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	var (
		rec attendance.Record
		ok  bool
	)
	r.store.read(ctx, func(t *tables) {
		rec, ok = t.attendances[r.key(employeeID, day)]
	})
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

// GetByEmployeeAndDay implements attendance.AttendanceRepository.
func (r attendanceRepository) GetByEmployeeAndDay(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	return r.get(ctx, employeeID, day)
}

// GetByEmployeeAndDayForUpdate relies on the transaction's writer lock.
func (r attendanceRepository) GetByEmployeeAndDayForUpdate(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	return r.get(ctx, employeeID, day)
}

// Create implements attendance.AttendanceRepository.
func (r attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	err := r.store.write(ctx, func(t *tables) error {
		k := r.key(record.EmployeeID, record.Day)
		if _, exists := t.attendances[k]; exists {
			return attendance.ErrConflict
		}
		now := time.Now()
		record.ID = uuid.NewString()
		record.Day = clock.StartOfDay(record.Day.In(r.store.loc))
		record.CreatedAt = now
		record.UpdatedAt = now
		t.attendances[k] = record
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// Update implements attendance.AttendanceRepository.
func (r attendanceRepository) Update(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	err := r.store.write(ctx, func(t *tables) error {
		k := r.key(record.EmployeeID, record.Day)
		existing, ok := t.attendances[k]
		if !ok || existing.ID != record.ID {
			return attendance.ErrRecordNotFound
		}
		record.Day = existing.Day
		record.CreatedAt = existing.CreatedAt
		record.UpdatedAt = time.Now()
		t.attendances[k] = record
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// UpsertLeave implements attendance.AttendanceRepository.
func (r attendanceRepository) UpsertLeave(ctx context.Context, employeeID string, day time.Time, leaveType string) (attendance.Record, error) {
	var rec attendance.Record
	err := r.store.write(ctx, func(t *tables) error {
		k := r.key(employeeID, day)
		now := time.Now()
		rec = attendance.Record{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			Day:        clock.StartOfDay(day.In(r.store.loc)),
			Status:     attendance.StatusLeave,
			LeaveType:  &leaveType,
			TotalHours: decimal.Zero,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if existing, ok := t.attendances[k]; ok {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
		}
		t.attendances[k] = rec
		return nil
	})
	return rec, err
}

// CreateAbsences implements attendance.AttendanceRepository.
func (r attendanceRepository) CreateAbsences(ctx context.Context, employeeIDs []string, day time.Time) (int, error) {
	created := 0
	err := r.store.write(ctx, func(t *tables) error {
		now := time.Now()
		for _, id := range employeeIDs {
			k := r.key(id, day)
			if _, exists := t.attendances[k]; exists {
				continue
			}
			t.attendances[k] = attendance.Record{
				ID:         uuid.NewString(),
				EmployeeID: id,
				Day:        clock.StartOfDay(day.In(r.store.loc)),
				Status:     attendance.StatusAbsent,
				TotalHours: decimal.Zero,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			created++
		}
		return nil
	})
	return created, err
}

// List implements attendance.AttendanceRepository.
func (r attendanceRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	from := clock.DateKey(filter.From.In(r.store.loc))
	to := clock.DateKey(filter.To.In(r.store.loc))

	var records []attendance.Record
	r.store.read(ctx, func(t *tables) {
		for _, rec := range t.attendances {
			key := clock.DateKey(rec.Day)
			if key < from || key > to {
				continue
			}
			if len(filter.EmployeeIDs) > 0 && !slices.Contains(filter.EmployeeIDs, rec.EmployeeID) {
				continue
			}
			records = append(records, rec)
		}
	})

	slices.SortFunc(records, func(a, b attendance.Record) int {
		if c := a.Day.Compare(b.Day); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})
	return records, nil
}

