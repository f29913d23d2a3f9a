package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workforce/employee-directory/internal/core/domain"
)

// Key layout:
//
//	employee:<email>               JSON document
//	employees:all                  sorted set of every email
//	employees:role:<role>          sorted set of emails holding role
//	employees:manager:<email>      sorted set of direct reports
//
// Every sorted-set member has score 0 so ZRANGE returns emails in
// lexicographic order.
const (
	docPrefix      = "employee:"
	indexAll       = "employees:all"
	indexRole      = "employees:role:"
	indexManager   = "employees:manager:"
	dateLayout     = "2006-01-02"
	maxTxRetries   = 5
	deleteScanSize = 500
)

type employeeDoc struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Password     string   `json:"password"`
	BirthDate    string   `json:"birth_date"`
	Roles        []string `json:"roles"`
	ManagerEmail string   `json:"manager_email,omitempty"`
}

// EmployeeRepository implements ports.EmployeeRepository on Redis. It has no
// native domain or age query; the directory service scans for those.
type EmployeeRepository struct {
	client *redis.Client
}

func NewEmployeeRepository(client *redis.Client) *EmployeeRepository {
	return &EmployeeRepository{client: client}
}

func (r *EmployeeRepository) Exists(ctx context.Context, email string) (bool, error) {
	n, err := r.client.Exists(ctx, docKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, email string) (*domain.Employee, error) {
	return get(ctx, r.client, email)
}

// Insert writes the document and its index entries in one transaction that
// fails with domain.ErrConflict when the key exists or appears concurrently.
func (r *EmployeeRepository) Insert(ctx context.Context, e *domain.Employee) error {
	payload, err := encode(e)
	if err != nil {
		return err
	}

	key := docKey(e.Email)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			addIndexes(ctx, pipe, e)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return domain.ErrConflict
	default:
		return fmt.Errorf("redis insert: %w", err)
	}
}

// Put overwrites the document and moves its index entries from the previous
// version to the new one.
func (r *EmployeeRepository) Put(ctx context.Context, e *domain.Employee) error {
	payload, err := encode(e)
	if err != nil {
		return err
	}

	key := docKey(e.Email)
	txf := func(tx *redis.Tx) error {
		prev, err := get(ctx, tx, e.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prev != nil {
				removeIndexes(ctx, pipe, prev)
			}
			pipe.Set(ctx, key, payload, 0)
			addIndexes(ctx, pipe, e)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err = r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// DeleteAll removes every document and index key.
func (r *EmployeeRepository) DeleteAll(ctx context.Context) error {
	for _, pattern := range []string{docPrefix + "*", "employees:*"} {
		iter := r.client.Scan(ctx, 0, pattern, deleteScanSize).Iterator()
		batch := make([]string, 0, deleteScanSize)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == deleteScanSize {
				if err := r.client.Del(ctx, batch...).Err(); err != nil {
					return fmt.Errorf("redis delete all: %w", err)
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis delete all: %w", err)
		}
		if len(batch) > 0 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis delete all: %w", err)
			}
		}
	}
	return nil
}

func (r *EmployeeRepository) QueryAll(ctx context.Context, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, indexAll, offset, limit)
}

func (r *EmployeeRepository) QueryByRole(ctx context.Context, role string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, indexRole+role, offset, limit)
}

func (r *EmployeeRepository) QueryByManagerEmail(ctx context.Context, managerEmail string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, indexManager+managerEmail, offset, limit)
}

func (r *EmployeeRepository) ScanAll(ctx context.Context) ([]*domain.Employee, error) {
	emails, err := r.client.ZRange(ctx, indexAll, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scan all: %w", err)
	}
	return r.load(ctx, emails)
}

// Ping reports whether the server answers.
func (r *EmployeeRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *EmployeeRepository) page(ctx context.Context, index string, offset, limit int) ([]*domain.Employee, int64, error) {
	total, err := r.client.ZCard(ctx, index).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis count %s: %w", index, err)
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return []*domain.Employee{}, total, nil
	}

	stop := domain.PageEnd(offset, limit, int(total)) - 1
	emails, err := r.client.ZRange(ctx, index, int64(offset), int64(stop)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis range %s: %w", index, err)
	}
	items, err := r.load(ctx, emails)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// load fetches the documents for emails in order. Index entries whose
// document is gone are skipped.
func (r *EmployeeRepository) load(ctx context.Context, emails []string) ([]*domain.Employee, error) {
	out := make([]*domain.Employee, 0, len(emails))
	if len(emails) == 0 {
		return out, nil
	}

	keys := make([]string, len(emails))
	for i, email := range emails {
		keys[i] = docKey(email)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		e, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, email string) (*domain.Employee, error) {
	data, err := c.Get(ctx, docKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

func addIndexes(ctx context.Context, pipe redis.Pipeliner, e *domain.Employee) {
	member := redis.Z{Score: 0, Member: e.Email}
	pipe.ZAdd(ctx, indexAll, member)
	for _, role := range e.Roles {
		pipe.ZAdd(ctx, indexRole+role, member)
	}
	if e.HasManager() {
		pipe.ZAdd(ctx, indexManager+e.ManagerEmail, member)
	}
}

func removeIndexes(ctx context.Context, pipe redis.Pipeliner, e *domain.Employee) {
	for _, role := range e.Roles {
		pipe.ZRem(ctx, indexRole+role, e.Email)
	}
	if e.HasManager() {
		pipe.ZRem(ctx, indexManager+e.ManagerEmail, e.Email)
	}
}

func docKey(email string) string {
	return docPrefix + email
}

func encode(e *domain.Employee) ([]byte, error) {
	payload, err := json.Marshal(employeeDoc{
		Email:        e.Email,
		Name:         e.Name,
		Password:     e.Password,
		BirthDate:    e.BirthDate.Format(dateLayout),
		Roles:        e.Roles,
		ManagerEmail: e.ManagerEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("encode employee: %w", err)
	}
	return payload, nil
}

func decode(data []byte) (*domain.Employee, error) {
	var doc employeeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	birthDate, err := time.Parse(dateLayout, doc.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("decode employee %s birth date: %w", doc.Email, err)
	}
	return &domain.Employee{
		Email:        doc.Email,
		Name:         doc.Name,
		Password:     doc.Password,
		BirthDate:    birthDate,
		Roles:        doc.Roles,
		ManagerEmail: doc.ManagerEmail,
	}, nil
}
