package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
)

// MockCustomerRepository implements CustomerRepository in memory
type MockCustomerRepository struct {
	customers map[int64]models.Customer
	locked    bool
	failWith  error
	upserts   [][]models.Customer
}

func NewMockCustomerRepository(customers ...models.Customer) *MockCustomerRepository {
	m := &MockCustomerRepository{customers: make(map[int64]models.Customer)}
	for _, c := range customers {
		m.customers[c.CustomerID] = c
	}
	return m
}

func (m *MockCustomerRepository) GetByID(_ context.Context, id int64) (*models.Customer, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, repository.ErrNotFound)
	}
	return &c, nil
}

func (m *MockCustomerRepository) Create(_ context.Context, c *models.Customer) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.customers[c.CustomerID]; exists {
		return fmt.Errorf("duplicate customer %d", c.CustomerID)
	}
	m.customers[c.CustomerID] = *c
	return nil
}

func (m *MockCustomerRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return fmt.Errorf("customer %d: %w", id, repository.ErrNotFound)
	}
	delete(m.customers, id)
	return nil
}

func (m *MockCustomerRepository) Count(context.Context) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	return int64(len(m.customers)), nil
}

func (m *MockCustomerRepository) LockForInsert(context.Context) error {
	m.locked = true
	return nil
}

func (m *MockCustomerRepository) NextAvailableID(context.Context) (int64, error) {
	if !m.locked {
		return 0, errors.New("NextAvailableID called without lock")
	}
	for id := int64(1); ; id++ {
		if _, taken := m.customers[id]; !taken {
			return id, nil
		}
	}
}

func (m *MockCustomerRepository) SearchByIDPrefix(_ context.Context, prefix string, limit int) ([]models.Customer, error) {
	ids := make([]int64, 0, len(m.customers))
	for id := range m.customers {
		if strings.HasPrefix(strconv.FormatInt(id, 10), prefix) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]models.Customer, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.customers[id])
	}
	return out, nil
}

func (m *MockCustomerRepository) UpsertBatch(_ context.Context, customers []models.Customer) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	batch := append([]models.Customer(nil), customers...)
	m.upserts = append(m.upserts, batch)
	for _, c := range customers {
		m.customers[c.CustomerID] = c
	}
	return int64(len(customers)), nil
}

func (m *MockCustomerRepository) DeleteAll(context.Context) (int64, error) {
	n := int64(len(m.customers))
	m.customers = make(map[int64]models.Customer)
	return n, nil
}

// MockUserRepository implements UserRepository in memory
type MockUserRepository struct {
	users map[uuid.UUID]models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]models.User)}
}

func (m *MockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Create(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

// MockTransactionManager runs the callback against the same repositories and
// restores the customer table when the callback fails
type MockTransactionManager struct {
	repos     *repository.Repositories
	customers *MockCustomerRepository
	commits   int
	rollbacks int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	snapshot := make(map[int64]models.Customer, len(m.customers.customers))
	for id, c := range m.customers.customers {
		snapshot[id] = c
	}

	err := fn(m.repos)
	m.customers.locked = false
	if err != nil {
		m.customers.customers = snapshot
		m.rollbacks++
		return fmt.Errorf("transaction failed: %w", err)
	}
	m.commits++
	return nil
}

func newMockRepos(customers ...models.Customer) (*repository.Repositories, *MockCustomerRepository, *MockTransactionManager) {
	customerRepo := NewMockCustomerRepository(customers...)
	repos := &repository.Repositories{
		Customer: customerRepo,
		User:     NewMockUserRepository(),
	}
	tx := &MockTransactionManager{repos: repos, customers: customerRepo}
	repos.Tx = tx
	return repos, customerRepo, tx
}

func customer(id int64) models.Customer {
	return models.Customer{
		CustomerID:       id,
		Age:              40,
		Gender:           "Male",
		Tenure:           24,
		UsageFrequency:   20,
		SupportCalls:     1,
		SubscriptionType: "Premium",
		ContractLength:   "Annual",
		TotalSpend:       900,
		LastInteraction:  5,
		PaymentMethod:    models.DefaultPaymentMethod,
	}
}
