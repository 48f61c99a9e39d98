package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/google/uuid"
)

type employeeRepository struct {
	store *Store
}

func (s *Store) Employees() employee.EmployeeRepository {
	return employeeRepository{store: s}
}

// AddEmployee seeds an employee; a missing ID is generated.
func (s *Store) AddEmployee(e employee.Employee) employee.Employee {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Role == "" {
		e.Role = employee.RoleEmployee
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	s.data.employees[e.ID] = e
	return e
}

// GetByID implements employee.EmployeeRepository.
func (r employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var (
		e  employee.Employee
		ok bool
	)
	r.store.read(ctx, func(t *tables) {
		e, ok = t.employees[id]
	})
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// ListActive implements employee.EmployeeRepository.
func (r employeeRepository) ListActive(ctx context.Context, filter employee.Filter) ([]employee.Employee, error) {
	return r.list(ctx, func(e employee.Employee) bool {
		if filter.Department != nil && e.Department != *filter.Department {
			return false
		}
		if filter.EmployeeID != nil && e.ID != *filter.EmployeeID {
			return false
		}
		return true
	}), nil
}

// ListManagers implements employee.EmployeeRepository.
func (r employeeRepository) ListManagers(ctx context.Context) ([]employee.Employee, error) {
	return r.list(ctx, func(e employee.Employee) bool {
		return e.Role.IsManager()
	}), nil
}

func (r employeeRepository) list(ctx context.Context, keep func(employee.Employee) bool) []employee.Employee {
	var employees []employee.Employee
	r.store.read(ctx, func(t *tables) {
		for _, e := range t.employees {
			if e.IsActive && keep(e) {
				employees = append(employees, e)
			}
		}
	})
	slices.SortFunc(employees, func(a, b employee.Employee) int {
		return cmp.Or(
			cmp.Compare(a.Department, b.Department),
			cmp.Compare(a.FullName, b.FullName),
		)
	})
	return employees
}
