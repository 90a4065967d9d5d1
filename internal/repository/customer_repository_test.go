package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/churn-insight-api/internal/models"
)

var customerRowColumns = []string{
	"customer_id", "age", "gender", "tenure", "usage_frequency", "support_calls",
	"payment_delay", "subscription_type", "contract_length", "total_spend",
	"last_interaction", "churn", "payment_method",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func sampleCustomer(id int64) models.Customer {
	return models.Customer{
		CustomerID:       id,
		Age:              30,
		Gender:           "Female",
		Tenure:           39,
		UsageFrequency:   14,
		SupportCalls:     5,
		PaymentDelay:     18,
		SubscriptionType: "Standard",
		ContractLength:   "Annual",
		TotalSpend:       932,
		LastInteraction:  17,
		Churn:            1,
		PaymentMethod:    "Electronic check",
	}
}

func addRow(rows *sqlmock.Rows, c models.Customer) *sqlmock.Rows {
	return rows.AddRow(
		c.CustomerID, c.Age, c.Gender, c.Tenure, c.UsageFrequency, c.SupportCalls,
		c.PaymentDelay, c.SubscriptionType, c.ContractLength, c.TotalSpend,
		c.LastInteraction, c.Churn, c.PaymentMethod,
	)
}

func TestCustomerRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)
	want := sampleCustomer(7)

	mock.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE customer_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(addRow(sqlmock.NewRows(customerRowColumns), want))

	got, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, &want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE customer_id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(customerRowColumns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)
	c := sampleCustomer(3)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs(c.CustomerID, c.Age, c.Gender, c.Tenure, c.UsageFrequency, c.SupportCalls,
			c.PaymentDelay, c.SubscriptionType, c.ContractLength, c.TotalSpend,
			c.LastInteraction, c.Churn, c.PaymentMethod).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), &c))
	assert.NoError(t, mock.ExpectationsWereMet())

	zero := sampleCustomer(0)
	assert.Error(t, repo.Create(context.Background(), &zero))
}

func TestCustomerRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE customer_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE customer_id = $1")).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_Count(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(440832)))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(440832), count)
}

func TestCustomerRepository_NextAvailableID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(c.customer_id) + 1 FROM customers c")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(4)))

	next, err := repo.NextAvailableID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)
}

func TestCustomerRepository_SearchByIDPrefix(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	rows := sqlmock.NewRows(customerRowColumns)
	addRow(rows, sampleCustomer(12))
	addRow(rows, sampleCustomer(120))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE customer_id::text LIKE $1")).
		WithArgs("12%", 10).
		WillReturnRows(rows)

	customers, err := repo.SearchByIDPrefix(context.Background(), "12", 10)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, int64(12), customers[0].CustomerID)
	assert.Equal(t, int64(120), customers[1].CustomerID)
}

func TestCustomerRepository_SearchEscapesWildcards(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE customer_id::text LIKE $1")).
		WithArgs(`1\_\%%`, 10).
		WillReturnRows(sqlmock.NewRows(customerRowColumns))

	customers, err := repo.SearchByIDPrefix(context.Background(), "1_%", 10)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestCustomerRepository_UpsertBatch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	batch := []models.Customer{sampleCustomer(1), sampleCustomer(2)}
	mock.ExpectExec(regexp.QuoteMeta("($14, $15, $16")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.UpsertBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_InsertWithAssignedID(t *testing.T) {
	db, mock := newMock(t)
	repos := NewRepositories(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE customers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := sampleCustomer(0)
	err := repos.Tx.WithTransaction(context.Background(), func(tx *Repositories) error {
		if err := tx.Customer.LockForInsert(context.Background()); err != nil {
			return err
		}
		id, err := tx.Customer.NextAvailableID(context.Background())
		if err != nil {
			return err
		}
		c.CustomerID = id
		return tx.Customer.Create(context.Background(), &c)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repos := NewRepositories(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repos.Tx.WithTransaction(context.Background(), func(*Repositories) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &models.User{Email: "ops@example.com", PasswordHash: "x", Role: "admin"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
