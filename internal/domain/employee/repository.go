package employee

import "context"

type Filter struct {
	Department *string
	EmployeeID *string
}

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context, filter Filter) ([]Employee, error)
	ListManagers(ctx context.Context) ([]Employee, error)
}
