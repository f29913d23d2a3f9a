package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/workforce/employee-directory/internal/core/domain"
)

const (
	defaultTimeout = 5 * time.Second

	uniqueViolationCode = "23505"

	employeeColumns = `email, name, password, birth_date, roles, manager_email`
	// "C" collation keeps byte order so pages match the other backends.
	orderByEmail = ` ORDER BY email COLLATE "C"`
)

// EmployeeRepository implements ports.EmployeeRepository and
// ports.CriteriaRepository on PostgreSQL.
type EmployeeRepository struct {
	db Queryer
}

func NewEmployeeRepository(db Queryer) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Exists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return exists, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, email string) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return e, nil
}

// Insert relies on the primary key so a concurrent duplicate fails too.
func (r *EmployeeRepository) Insert(ctx context.Context, e *domain.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
        INSERT INTO employees (email, email_domain, name, password, birth_date, roles, manager_email)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, employeeArgs(e)...)
	if err != nil {
		return translatePgError(err)
	}
	return nil
}

func (r *EmployeeRepository) Put(ctx context.Context, e *domain.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
        INSERT INTO employees (email, email_domain, name, password, birth_date, roles, manager_email)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (email) DO UPDATE
           SET email_domain = EXCLUDED.email_domain,
               name = EXCLUDED.name,
               password = EXCLUDED.password,
               birth_date = EXCLUDED.birth_date,
               roles = EXCLUDED.roles,
               manager_email = EXCLUDED.manager_email
    `, employeeArgs(e)...)
	if err != nil {
		return translatePgError(err)
	}
	return nil
}

func (r *EmployeeRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("postgres: delete all: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) QueryAll(ctx context.Context, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, "", nil, offset, limit)
}

func (r *EmployeeRepository) QueryByRole(ctx context.Context, role string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, `roles @> ARRAY[$1]::text[]`, []any{role}, offset, limit)
}

func (r *EmployeeRepository) QueryByManagerEmail(ctx context.Context, managerEmail string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, `manager_email = $1`, []any{managerEmail}, offset, limit)
}

func (r *EmployeeRepository) QueryByEmailDomain(ctx context.Context, emailDomain string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, `email_domain = $1`, []any{strings.ToLower(emailDomain)}, offset, limit)
}

func (r *EmployeeRepository) QueryByBirthDateRange(ctx context.Context, from, to time.Time, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, `birth_date BETWEEN $1 AND $2`, []any{from, to}, offset, limit)
}

func (r *EmployeeRepository) ScanAll(ctx context.Context) ([]*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.list(ctx, `SELECT `+employeeColumns+` FROM employees`+orderByEmail)
}

// page counts the rows matching where and fetches [offset, offset+limit).
// where uses placeholders $1..$n matching args.
func (r *EmployeeRepository) page(ctx context.Context, where string, args []any, offset, limit int) ([]*domain.Employee, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count employees: %w", err)
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return []*domain.Employee{}, total, nil
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+2)
	query := `SELECT ` + employeeColumns + ` FROM employees` + whereClause + orderByEmail +
		` LIMIT ` + limitPlaceholder + ` OFFSET ` + offsetPlaceholder

	items, err := r.list(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EmployeeRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Employee, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate employees: %w", err)
	}
	return employees, nil
}

func employeeArgs(e *domain.Employee) []any {
	var manager any
	if e.HasManager() {
		manager = e.ManagerEmail
	}
	return []any{
		e.Email,
		strings.ToLower(e.EmailDomain()),
		e.Name,
		e.Password,
		domain.DateOf(e.BirthDate),
		e.Roles,
		manager,
	}
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		e         domain.Employee
		birthDate time.Time
		manager   sql.NullString
	)
	if err := row.Scan(&e.Email, &e.Name, &e.Password, &birthDate, &e.Roles, &manager); err != nil {
		return nil, err
	}
	e.BirthDate = domain.DateOf(birthDate.UTC())
	if manager.Valid {
		e.ManagerEmail = manager.String
	}
	return &e, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.ErrConflict
	}
	return fmt.Errorf("postgres: %w", err)
}
