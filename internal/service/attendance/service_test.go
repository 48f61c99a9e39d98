package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

type fixture struct {
	store   *memory.Store
	clock   *clock.Fixed
	service attendance.AttendanceService
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	store := memory.NewStore(jakarta)
	clk := clock.NewFixed(now)
	return fixture{
		store:   store,
		clock:   clk,
		service: NewAttendanceService(store.Transactor(), store.Attendance(), clk, attendance.DefaultPolicy()),
	}
}

func at(h, m, s int) time.Time {
	return time.Date(2024, time.March, 11, h, m, s, 0, jakarta)
}

func TestCheckIn_LatenessBoundary(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want attendance.Status
	}{
		{"early", at(8, 0, 0), attendance.StatusPresent},
		{"one second before", at(9, 29, 59), attendance.StatusPresent},
		{"exactly on threshold", at(9, 30, 0), attendance.StatusLate},
		{"after threshold", at(10, 15, 0), attendance.StatusLate},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t, c.now)
			resp, err := f.service.CheckIn(context.Background(), "emp-1")
			require.NoError(t, err)
			assert.Equal(t, c.want, resp.Status)
			assert.Equal(t, "2024-03-11", resp.Date)
			require.NotNil(t, resp.CheckInAt)
			assert.Nil(t, resp.CheckOutAt)
			assert.Zero(t, resp.TotalHours)
		})
	}
}

func TestCheckIn_Twice(t *testing.T) {
	f := newFixture(t, at(9, 0, 0))
	ctx := context.Background()

	first, err := f.service.CheckIn(ctx, "emp-1")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.service.CheckIn(ctx, "emp-1")
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	today, err := f.service.Today(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, first.CheckInAt, today.CheckInAt)
	assert.Equal(t, attendance.StatusPresent, today.Status)
}

func TestCheckIn_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t, at(9, 0, 0))

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		already int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CheckIn(context.Background(), "emp-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn):
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, already)

	records, err := f.store.Attendance().List(context.Background(), attendance.RecordFilter{
		From: at(0, 0, 0),
		To:   at(0, 0, 0),
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckIn_OnLeaveDay(t *testing.T) {
	f := newFixture(t, at(9, 0, 0))
	ctx := context.Background()

	_, err := f.store.Attendance().UpsertLeave(ctx, "emp-1", at(0, 0, 0), "sick")
	require.NoError(t, err)

	_, err = f.service.CheckIn(ctx, "emp-1")
	assert.ErrorIs(t, err, attendance.ErrOnApprovedLeave)

	rec, err := f.store.Attendance().GetByEmployeeAndDay(ctx, "emp-1", at(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLeave, rec.Status)
}

func TestCheckIn_OverAbsentRecord(t *testing.T) {
	f := newFixture(t, at(10, 0, 0))
	ctx := context.Background()

	n, err := f.store.Attendance().CreateAbsences(ctx, []string{"emp-1"}, at(0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	resp, err := f.service.CheckIn(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
}

func TestCheckIn_RequiresEmployee(t *testing.T) {
	f := newFixture(t, at(9, 0, 0))
	_, err := f.service.CheckIn(context.Background(), "  ")
	assert.ErrorIs(t, err, attendance.ErrEmployeeIDRequired)
}

func TestCheckOut(t *testing.T) {
	cases := []struct {
		name      string
		checkIn   time.Time
		checkOut  time.Time
		wantHours float64
		want      attendance.Status
	}{
		{"short day becomes half-day", at(9, 0, 0), at(11, 30, 0), 2.5, attendance.StatusHalfDay},
		{"late short day becomes half-day", at(10, 0, 0), at(12, 0, 0), 2, attendance.StatusHalfDay},
		{"exactly four hours keeps status", at(9, 0, 0), at(13, 0, 0), 4, attendance.StatusPresent},
		{"full late day stays late", at(9, 45, 0), at(18, 0, 0), 8.25, attendance.StatusLate},
		{"rounded to two decimals", at(9, 0, 0), at(17, 20, 0), 8.33, attendance.StatusPresent},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t, c.checkIn)
			ctx := context.Background()

			_, err := f.service.CheckIn(ctx, "emp-1")
			require.NoError(t, err)

			f.clock.Set(c.checkOut)
			resp, err := f.service.CheckOut(ctx, "emp-1")
			require.NoError(t, err)
			assert.Equal(t, c.want, resp.Status)
			assert.Equal(t, c.wantHours, resp.TotalHours)
			require.NotNil(t, resp.CheckOutAt)
		})
	}
}

func TestCheckOut_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no record", func(t *testing.T) {
		f := newFixture(t, at(17, 0, 0))
		_, err := f.service.CheckOut(ctx, "emp-1")
		assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	})

	t.Run("leave record has no check-in", func(t *testing.T) {
		f := newFixture(t, at(17, 0, 0))
		_, err := f.store.Attendance().UpsertLeave(ctx, "emp-1", at(0, 0, 0), "annual")
		require.NoError(t, err)
		_, err = f.service.CheckOut(ctx, "emp-1")
		assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	})

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t, at(9, 0, 0))
		_, err := f.service.CheckIn(ctx, "emp-1")
		require.NoError(t, err)
		f.clock.Set(at(17, 0, 0))
		first, err := f.service.CheckOut(ctx, "emp-1")
		require.NoError(t, err)

		f.clock.Set(at(18, 0, 0))
		_, err = f.service.CheckOut(ctx, "emp-1")
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

		today, err := f.service.Today(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, first.CheckOutAt, today.CheckOutAt)
		assert.Equal(t, 8.0, today.TotalHours)
	})
}

func TestToday_NoRecord(t *testing.T) {
	f := newFixture(t, at(12, 0, 0))

	resp, err := f.service.Today(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.False(t, resp.Recorded)
	assert.Equal(t, attendance.StatusAbsent, resp.Status)
	assert.Equal(t, "2024-03-11", resp.Date)

	records, err := f.store.Attendance().List(context.Background(), attendance.RecordFilter{From: at(0, 0, 0), To: at(0, 0, 0)})
	require.NoError(t, err)
	assert.Empty(t, records)
}

// conflictingRepository reports a uniqueness conflict for the first failures creates.
type conflictingRepository struct {
	attendance.AttendanceRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *conflictingRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return attendance.Record{}, attendance.ErrConflict
	}
	return r.AttendanceRepository.Create(ctx, rec)
}

func TestCheckIn_ConflictRetry(t *testing.T) {
	t.Run("recovers after one conflict", func(t *testing.T) {
		store := memory.NewStore(jakarta)
		repo := &conflictingRepository{AttendanceRepository: store.Attendance(), failures: 1}
		svc := NewAttendanceService(store.Transactor(), repo, clock.NewFixed(at(9, 0, 0)), attendance.DefaultPolicy())

		resp, err := svc.CheckIn(context.Background(), "emp-1")
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, resp.Status)
		assert.Equal(t, 2, repo.calls)
	})

	t.Run("second conflict is transient", func(t *testing.T) {
		store := memory.NewStore(jakarta)
		repo := &conflictingRepository{AttendanceRepository: store.Attendance(), failures: 2}
		svc := NewAttendanceService(store.Transactor(), repo, clock.NewFixed(at(9, 0, 0)), attendance.DefaultPolicy())

		_, err := svc.CheckIn(context.Background(), "emp-1")
		assert.ErrorIs(t, err, attendance.ErrTransient)
		assert.Equal(t, 2, repo.calls)
	})
}
