package ports

import (
	"context"
	"time"

	"github.com/workforce/employee-directory/internal/core/domain"
)

// EmployeeRepository is the record store every backend implements. Listing
// methods return one page ordered by email ascending plus the total number of
// matching records.
type EmployeeRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	// Get returns domain.ErrNotFound when no record has the key.
	Get(ctx context.Context, email string) (*domain.Employee, error)
	// Insert stores a new record and returns domain.ErrConflict when the key
	// is already taken.
	Insert(ctx context.Context, e *domain.Employee) error
	// Put overwrites the record stored under e.Email.
	Put(ctx context.Context, e *domain.Employee) error
	DeleteAll(ctx context.Context) error

	QueryAll(ctx context.Context, offset, limit int) ([]*domain.Employee, int64, error)
	QueryByRole(ctx context.Context, role string, offset, limit int) ([]*domain.Employee, int64, error)
	QueryByManagerEmail(ctx context.Context, managerEmail string, offset, limit int) ([]*domain.Employee, int64, error)

	// ScanAll returns every record ordered by email. Used only when a backend
	// has no native query for a criteria.
	ScanAll(ctx context.Context) ([]*domain.Employee, error)
}

// CriteriaRepository is implemented by backends that can answer the domain
// and age filters with a native indexed query.
type CriteriaRepository interface {
	// QueryByEmailDomain expects a lowercased domain.
	QueryByEmailDomain(ctx context.Context, emailDomain string, offset, limit int) ([]*domain.Employee, int64, error)
	// QueryByBirthDateRange matches birth dates in [from, to].
	QueryByBirthDateRange(ctx context.Context, from, to time.Time, offset, limit int) ([]*domain.Employee, int64, error)
}
