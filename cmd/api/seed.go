package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
)

type seedEmployee struct {
	ID           string        `json:"id"`
	EmployeeCode string        `json:"employee_code"`
	FullName     string        `json:"full_name"`
	Email        string        `json:"email"`
	Department   string        `json:"department"`
	Role         employee.Role `json:"role"`
}

// seedEmployees loads a JSON array of employees into the memory store.
func seedEmployees(store *memory.Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seeds []seedEmployee
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for _, s := range seeds {
		store.AddEmployee(employee.Employee{
			ID:           s.ID,
			EmployeeCode: s.EmployeeCode,
			FullName:     s.FullName,
			Email:        s.Email,
			Department:   s.Department,
			Role:         s.Role,
			IsActive:     true,
		})
	}
	return len(seeds), nil
}
