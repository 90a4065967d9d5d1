package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ajharbinger/churn-insight-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	// Basic CRUD operations
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)

	// ID assignment; both must run inside the same transaction
	LockForInsert(ctx context.Context) error
	NextAvailableID(ctx context.Context) (int64, error)

	// Search
	SearchByIDPrefix(ctx context.Context, prefix string, limit int) ([]models.Customer, error)

	// Bulk operations
	UpsertBatch(ctx context.Context, customers []models.Customer) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository defines the interface for operator account access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Customer CustomerRepository
	User     UserRepository
	Tx       TransactionManager
}
