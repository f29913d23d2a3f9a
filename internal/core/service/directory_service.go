package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/workforce/employee-directory/internal/core/domain"
	"github.com/workforce/employee-directory/internal/core/ports"
)

// Clock provides the current time. Age filters depend on "today".
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DirectoryService implements ports.DirectoryService on top of any record
// store. Domain and age filters use the store's native query when it has one
// and fall back to an in-memory scan otherwise.
type DirectoryService struct {
	repo    ports.EmployeeRepository
	secrets SecretMatcher
	clock   Clock
	logger  zerolog.Logger
}

func NewDirectoryService(repo ports.EmployeeRepository, secrets SecretMatcher, clock Clock, logger zerolog.Logger) *DirectoryService {
	if secrets == nil {
		secrets = plainMatcher{}
	}
	if clock == nil {
		clock = realClock{}
	}
	return &DirectoryService{repo: repo, secrets: secrets, clock: clock, logger: logger}
}

// CreateEmployee validates and stores a new employee. A taken email yields a
// conflict, including when a concurrent create wins the race.
func (s *DirectoryService) CreateEmployee(ctx context.Context, in ports.CreateEmployeeInput) (*domain.Employee, error) {
	birthDate, err := domain.NewBirthDate(in.Day, in.Month, in.Year)
	if err != nil {
		return nil, err
	}
	roles := domain.UniqueRoles(in.Roles)
	if len(roles) == 0 {
		return nil, domain.InvalidInputf("roles cannot be empty")
	}
	for _, r := range roles {
		if strings.TrimSpace(r) == "" {
			return nil, domain.InvalidInputf("role cannot be blank")
		}
	}

	exists, err := s.repo.Exists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	if exists {
		s.logger.Warn().Str("email", in.Email).Msg("attempted to create employee with existing email")
		return nil, domain.Conflictf("employee with email %s already exists", in.Email)
	}

	secret, err := s.secrets.Seal(in.Password)
	if err != nil {
		return nil, err
	}

	emp := &domain.Employee{
		Email:     in.Email,
		Name:      in.Name,
		Password:  secret,
		BirthDate: birthDate,
		Roles:     roles,
	}
	if err := s.repo.Insert(ctx, emp); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflictf("employee with email %s already exists", in.Email)
		}
		s.logger.Error().Err(err).Str("email", in.Email).Msg("failed to create employee")
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.logger.Info().Str("email", emp.Email).Msg("employee created")
	return emp, nil
}

// Authenticate fetches an employee when the password matches the stored
// credential.
func (s *DirectoryService) Authenticate(ctx context.Context, email, password string) (*domain.Employee, error) {
	emp, err := s.find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Str("email", email).Msg("employee not found for login attempt")
		}
		return nil, err
	}

	if !s.secrets.Match(emp.Password, password) {
		s.logger.Warn().Str("email", email).Msg("incorrect password attempt")
		return nil, domain.Unauthorizedf("incorrect password for employee %s", email)
	}

	s.logger.Debug().Str("email", email).Msg("employee authenticated")
	return emp, nil
}

// ListEmployees resolves a filter into one page of employees.
func (s *DirectoryService) ListEmployees(ctx context.Context, filter domain.Filter, req domain.PageRequest) (*domain.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Stringer("criteria", filter.Criteria).
		Str("value", filter.Value).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("listing employees")

	switch filter.Criteria {
	case domain.CriteriaNone:
		return s.page(req)(s.repo.QueryAll(ctx, req.Offset(), req.Size))

	case domain.CriteriaByEmailDomain:
		emailDomain, err := domain.ParseDomain(filter.Value)
		if err != nil {
			return nil, err
		}
		if native, ok := s.repo.(ports.CriteriaRepository); ok {
			return s.page(req)(native.QueryByEmailDomain(ctx, emailDomain, req.Offset(), req.Size))
		}
		return s.scan(ctx, req, func(e *domain.Employee) bool {
			return strings.EqualFold(e.EmailDomain(), emailDomain)
		})

	case domain.CriteriaByRole:
		role, err := domain.ParseRole(filter.Value)
		if err != nil {
			return nil, err
		}
		return s.page(req)(s.repo.QueryByRole(ctx, role, req.Offset(), req.Size))

	case domain.CriteriaByAge:
		age, err := domain.ParseAge(filter.Value)
		if err != nil {
			return nil, err
		}
		from, to := domain.AgeWindow(s.clock.Now(), age)
		s.logger.Debug().Int("age", age).Time("from", from).Time("to", to).Msg("age window")
		if native, ok := s.repo.(ports.CriteriaRepository); ok {
			return s.page(req)(native.QueryByBirthDateRange(ctx, from, to, req.Offset(), req.Size))
		}
		return s.scan(ctx, req, func(e *domain.Employee) bool {
			return domain.InRange(domain.DateOf(e.BirthDate), from, to)
		})
	}

	return nil, domain.InvalidCriteriaf("invalid criteria %s", filter.Criteria)
}

// DeleteAll removes every employee and with them every manager link.
func (s *DirectoryService) DeleteAll(ctx context.Context) error {
	s.logger.Warn().Msg("deleting all employee data")
	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all employees: %w", err)
	}
	return nil
}

// AssignManager makes managerEmail the manager of employeeEmail. Only direct
// two-node cycles are rejected; longer loops are not walked.
func (s *DirectoryService) AssignManager(ctx context.Context, employeeEmail, managerEmail string) error {
	if strings.EqualFold(employeeEmail, managerEmail) {
		return domain.InvalidInputf("employee cannot be their own manager")
	}

	emp, err := s.find(ctx, employeeEmail)
	if err != nil {
		return err
	}
	mgr, err := s.get(ctx, managerEmail, "manager with email %s not found")
	if err != nil {
		return err
	}

	if strings.EqualFold(mgr.ManagerEmail, emp.Email) {
		s.logger.Warn().Str("employee", emp.Email).Str("manager", mgr.Email).Msg("circular manager assignment rejected")
		return domain.Conflictf("circular manager assignment: %s already reports to %s", mgr.Email, emp.Email)
	}

	if strings.EqualFold(emp.ManagerEmail, mgr.Email) {
		s.logger.Debug().Str("employee", emp.Email).Str("manager", mgr.Email).Msg("manager already assigned")
		return nil
	}

	emp.ManagerEmail = mgr.Email
	if err := s.repo.Put(ctx, emp); err != nil {
		return fmt.Errorf("assign manager: %w", err)
	}

	s.logger.Info().Str("employee", emp.Email).Str("manager", mgr.Email).Msg("manager assigned")
	return nil
}

// GetManager returns the manager record of employeeEmail.
func (s *DirectoryService) GetManager(ctx context.Context, employeeEmail string) (*domain.Employee, error) {
	emp, err := s.find(ctx, employeeEmail)
	if err != nil {
		return nil, err
	}
	if !emp.HasManager() {
		return nil, domain.NotFoundf("no manager defined for employee %s", employeeEmail)
	}

	mgr, err := s.repo.Get(ctx, emp.ManagerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().
				Str("employee", employeeEmail).
				Str("manager", emp.ManagerEmail).
				Msg("data inconsistency: referenced manager does not exist")
			return nil, domain.DataInconsistencyf("manager with email %s not found (data inconsistency)", emp.ManagerEmail)
		}
		return nil, fmt.Errorf("get manager: %w", err)
	}
	return mgr, nil
}

// Subordinates lists the direct reports of managerEmail. An unknown manager
// yields an empty page rather than an error.
func (s *DirectoryService) Subordinates(ctx context.Context, managerEmail string, req domain.PageRequest) (*domain.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, managerEmail)
	if err != nil {
		return nil, fmt.Errorf("subordinates: %w", err)
	}
	if !exists {
		s.logger.Warn().Str("manager", managerEmail).Msg("subordinates requested for non-existent manager")
		return domain.EmptyPage(req), nil
	}

	return s.page(req)(s.repo.QueryByManagerEmail(ctx, managerEmail, req.Offset(), req.Size))
}

// RemoveManager clears the manager of employeeEmail. Clearing an unset
// manager is a no-op.
func (s *DirectoryService) RemoveManager(ctx context.Context, employeeEmail string) error {
	emp, err := s.find(ctx, employeeEmail)
	if err != nil {
		return err
	}
	if !emp.HasManager() {
		s.logger.Debug().Str("employee", employeeEmail).Msg("no manager to remove")
		return nil
	}

	emp.ManagerEmail = ""
	if err := s.repo.Put(ctx, emp); err != nil {
		return fmt.Errorf("remove manager: %w", err)
	}

	s.logger.Info().Str("employee", employeeEmail).Msg("manager removed")
	return nil
}

func (s *DirectoryService) find(ctx context.Context, email string) (*domain.Employee, error) {
	return s.get(ctx, email, "employee with email %s not found")
}

func (s *DirectoryService) get(ctx context.Context, email, notFound string) (*domain.Employee, error) {
	emp, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundf(notFound, email)
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return emp, nil
}

// page adapts a (items, total, err) store result into a Page.
func (s *DirectoryService) page(req domain.PageRequest) func([]*domain.Employee, int64, error) (*domain.Page, error) {
	return func(items []*domain.Employee, total int64, err error) (*domain.Page, error) {
		if err != nil {
			return nil, fmt.Errorf("list employees: %w", err)
		}
		if items == nil {
			items = []*domain.Employee{}
		}
		return &domain.Page{Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
	}
}

// scan loads every record and filters in memory. Stores keep ScanAll ordered
// by email, so the resulting pages are stable.
func (s *DirectoryService) scan(ctx context.Context, req domain.PageRequest, keep func(*domain.Employee) bool) (*domain.Page, error) {
	s.logger.Warn().Msg("performing in-memory filtering over the full record set")

	all, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	matched := make([]*domain.Employee, 0, len(all))
	for _, e := range all {
		if keep(e) {
			matched = append(matched, e)
		}
	}
	return domain.Paginate(matched, req), nil
}
