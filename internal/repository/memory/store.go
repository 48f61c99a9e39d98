// Package memory keeps every repository in process memory. Writes are serialized.
// A transaction works on a private copy of the tables that replaces the live ones on commit,
// so readers outside it never observe uncommitted state.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type txKey struct{}

type tables struct {
	employees     map[string]employee.Employee
	attendances   map[string]attendance.Record
	leaves        map[string]leave.LeaveRequest
	notifications map[string]notification.Notification
}

func (t *tables) clone() *tables {
	return &tables{
		employees:     maps.Clone(t.employees),
		attendances:   maps.Clone(t.attendances),
		leaves:        maps.Clone(t.leaves),
		notifications: maps.Clone(t.notifications),
	}
}

type Store struct {
	loc *time.Location

	// writeMu serializes writers; a transaction holds it for its whole duration.
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *tables
}

func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		loc: loc,
		data: &tables{
			employees:     make(map[string]employee.Employee),
			attendances:   make(map[string]attendance.Record),
			leaves:        make(map[string]leave.LeaveRequest),
			notifications: make(map[string]notification.Notification),
		},
	}
}

func staged(ctx context.Context) *tables {
	t, _ := ctx.Value(txKey{}).(*tables)
	return t
}

// write runs fn as the single writer. Inside a transaction it works on the staged copy.
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if t := staged(ctx); t != nil {
		return fn(t)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// read sees the transaction's own writes when ctx carries one, committed state otherwise.
func (s *Store) read(ctx context.Context, fn func(t *tables)) {
	if t := staged(ctx); t != nil {
		fn(t)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

type transactor struct {
	store *Store
}

func (s *Store) Transactor() database.Transactor {
	return transactor{store: s}
}

// WithinTransaction joins an outer transaction when ctx already carries one.
func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if staged(ctx) != nil {
		return fn(ctx)
	}

	t.store.writeMu.Lock()
	defer t.store.writeMu.Unlock()

	t.store.mu.RLock()
	work := t.store.data.clone()
	t.store.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.data = work
	t.store.mu.Unlock()
	return nil
}
