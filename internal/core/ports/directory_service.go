package ports

import (
	"context"

	"github.com/workforce/employee-directory/internal/core/domain"
)

// CreateEmployeeInput is the DTO passed from the transport layer on create.
type CreateEmployeeInput struct {
	Email    string
	Name     string
	Password string
	Day      int
	Month    int
	Year     int
	Roles    []string
}

// DirectoryService defines the directory use cases.
type DirectoryService interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*domain.Employee, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Employee, error)
	ListEmployees(ctx context.Context, filter domain.Filter, page domain.PageRequest) (*domain.Page, error)
	DeleteAll(ctx context.Context) error

	AssignManager(ctx context.Context, employeeEmail, managerEmail string) error
	GetManager(ctx context.Context, employeeEmail string) (*domain.Employee, error)
	Subordinates(ctx context.Context, managerEmail string, page domain.PageRequest) (*domain.Page, error)
	RemoveManager(ctx context.Context, employeeEmail string) error
}
