package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workforce/employee-directory/internal/core/domain"
)

const collectionEmployees = "employees"

// employeeDoc is the stored shape. The email is the document id; the
// lowercased domain is denormalised so byEmailDomain can use an index.
type employeeDoc struct {
	Email        string    `bson:"_id"`
	EmailDomain  string    `bson:"email_domain"`
	Name         string    `bson:"name"`
	Password     string    `bson:"password"`
	BirthDate    time.Time `bson:"birth_date"`
	Roles        []string  `bson:"roles"`
	ManagerEmail string    `bson:"manager_email,omitempty"`
}

func toDoc(e *domain.Employee) employeeDoc {
	return employeeDoc{
		Email:        e.Email,
		EmailDomain:  strings.ToLower(e.EmailDomain()),
		Name:         e.Name,
		Password:     e.Password,
		BirthDate:    domain.DateOf(e.BirthDate),
		Roles:        e.Roles,
		ManagerEmail: e.ManagerEmail,
	}
}

func (d employeeDoc) toDomain() *domain.Employee {
	return &domain.Employee{
		Email:        d.Email,
		Name:         d.Name,
		Password:     d.Password,
		BirthDate:    domain.DateOf(d.BirthDate.UTC()),
		Roles:        d.Roles,
		ManagerEmail: d.ManagerEmail,
	}
}

// EmployeeRepository implements ports.EmployeeRepository and
// ports.CriteriaRepository on MongoDB.
type EmployeeRepository struct {
	col *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{col: db.Collection(collectionEmployees)}
}

func (r *EmployeeRepository) Exists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo exists: %w", err)
	}
	return n > 0, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, email string) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc employeeDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find employee: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert relies on the unique _id so a concurrent duplicate fails too.
func (r *EmployeeRepository) Insert(ctx context.Context, e *domain.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDoc(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo insert employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) Put(ctx context.Context, e *domain.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.Email}, toDoc(e), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo delete all: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) QueryAll(ctx context.Context, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, bson.M{}, offset, limit)
}

func (r *EmployeeRepository) QueryByRole(ctx context.Context, role string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, bson.M{"roles": role}, offset, limit)
}

func (r *EmployeeRepository) QueryByManagerEmail(ctx context.Context, managerEmail string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, bson.M{"manager_email": managerEmail}, offset, limit)
}

func (r *EmployeeRepository) QueryByEmailDomain(ctx context.Context, emailDomain string, offset, limit int) ([]*domain.Employee, int64, error) {
	return r.page(ctx, bson.M{"email_domain": strings.ToLower(emailDomain)}, offset, limit)
}

func (r *EmployeeRepository) QueryByBirthDateRange(ctx context.Context, from, to time.Time, offset, limit int) ([]*domain.Employee, int64, error) {
	filter := bson.M{"birth_date": bson.M{"$gte": from, "$lte": to}}
	return r.page(ctx, filter, offset, limit)
}

func (r *EmployeeRepository) ScanAll(ctx context.Context) ([]*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// Ping reports whether the primary answers.
func (r *EmployeeRepository) Ping(ctx context.Context) error {
	return r.col.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// EnsureIndexes creates the secondary indexes behind every list query.
func (r *EmployeeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "roles", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "manager_email", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "email_domain", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "birth_date", Value: 1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) page(ctx context.Context, filter bson.M, offset, limit int) ([]*domain.Employee, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo count employees: %w", err)
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return []*domain.Employee{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EmployeeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Employee, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find employees: %w", err)
	}
	defer cur.Close(ctx)

	var docs []employeeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode employees: %w", err)
	}

	out := make([]*domain.Employee, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}
