package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ajharbinger/churn-insight-api/internal/models"
)

const customerColumns = `customer_id, age, gender, tenure, usage_frequency, support_calls,
	payment_delay, subscription_type, contract_length, total_spend, last_interaction,
	churn, payment_method`

const customerColumnCount = 13

// MaxUpsertBatchSize is the largest batch UpsertBatch can bind in one statement.
// Postgres caps a statement at 65535 parameters.
const MaxUpsertBatchSize = 65535 / customerColumnCount

// customerRepository implements CustomerRepository
type customerRepository struct {
	db dbExecutor
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db dbExecutor) CustomerRepository {
	return &customerRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(
		&c.CustomerID, &c.Age, &c.Gender, &c.Tenure, &c.UsageFrequency, &c.SupportCalls,
		&c.PaymentDelay, &c.SubscriptionType, &c.ContractLength, &c.TotalSpend,
		&c.LastInteraction, &c.Churn, &c.PaymentMethod,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func customerArgs(c *models.Customer) []interface{} {
	return []interface{}{
		c.CustomerID, c.Age, c.Gender, c.Tenure, c.UsageFrequency, c.SupportCalls,
		c.PaymentDelay, c.SubscriptionType, c.ContractLength, c.TotalSpend,
		c.LastInteraction, c.Churn, c.PaymentMethod,
	}
}

// GetByID retrieves a customer by ID
func (r *customerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// Create inserts a customer whose ID has already been assigned
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.CustomerID <= 0 {
		return fmt.Errorf("customer ID must be positive, got %d", customer.CustomerID)
	}

	query := `INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if _, err := r.db.ExecContext(ctx, query, customerArgs(customer)...); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Delete removes a customer by ID
func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}

	return nil
}

// Count returns the number of customers
func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// LockForInsert blocks concurrent writers until the surrounding transaction ends so that
// NextAvailableID and the following insert see a stable set of IDs.
func (r *customerRepository) LockForInsert(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `LOCK TABLE customers IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock customers table: %w", err)
	}
	return nil
}

// NextAvailableID returns the smallest positive ID not in use. An empty table yields 1
// and a table without gaps yields MAX(customer_id) + 1.
func (r *customerRepository) NextAvailableID(ctx context.Context) (int64, error) {
	query := `
		SELECT COALESCE(
			(SELECT 1 WHERE NOT EXISTS (SELECT 1 FROM customers WHERE customer_id = 1)),
			(SELECT MIN(c.customer_id) + 1 FROM customers c
			 WHERE NOT EXISTS (
				SELECT 1 FROM customers n WHERE n.customer_id = c.customer_id + 1
			 ))
		)
	`

	var next int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to find next customer ID: %w", err)
	}
	return next, nil
}

// SearchByIDPrefix returns up to limit customers whose ID, written in decimal, starts with prefix
func (r *customerRepository) SearchByIDPrefix(ctx context.Context, prefix string, limit int) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
		WHERE customer_id::text LIKE $1 ESCAPE '\'
		ORDER BY customer_id
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	customers := make([]models.Customer, 0, limit)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}

// UpsertBatch inserts customers in one statement, replacing rows whose ID already exists
func (r *customerRepository) UpsertBatch(ctx context.Context, customers []models.Customer) (int64, error) {
	if len(customers) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO customers (` + customerColumns + `) VALUES `)

	args := make([]interface{}, 0, len(customers)*customerColumnCount)
	for i := range customers {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < customerColumnCount; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*customerColumnCount+j+1)
		}
		sb.WriteString(")")
		args = append(args, customerArgs(&customers[i])...)
	}

	sb.WriteString(` ON CONFLICT (customer_id) DO UPDATE SET
		age = EXCLUDED.age, gender = EXCLUDED.gender, tenure = EXCLUDED.tenure,
		usage_frequency = EXCLUDED.usage_frequency, support_calls = EXCLUDED.support_calls,
		payment_delay = EXCLUDED.payment_delay, subscription_type = EXCLUDED.subscription_type,
		contract_length = EXCLUDED.contract_length, total_spend = EXCLUDED.total_spend,
		last_interaction = EXCLUDED.last_interaction, churn = EXCLUDED.churn,
		payment_method = EXCLUDED.payment_method`)

	result, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert customers: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// DeleteAll removes every customer
func (r *customerRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete customers: %w", err)
	}
	return result.RowsAffected()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
