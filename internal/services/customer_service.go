package services

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
)

// SuggestionLimit caps the number of suggestions returned for one query
const SuggestionLimit = 10

// CustomerDetail is a stored customer together with its churn analysis
type CustomerDetail struct {
	*models.Customer
	ChurnProbability int              `json:"churn_probability"`
	ChurnFactors     churn.Factors    `json:"churn_factors"`
	ChurnStrategies  churn.Strategies `json:"churn_strategies"`
	Encoded          models.Encoded   `json:"encoded"`
}

// Suggestion is one entry of the ID autocomplete list
type Suggestion struct {
	ID   string `json:"id"`
	Risk int    `json:"risk"`
}

// customerService implements CustomerService
type customerService struct {
	repos   *repository.Repositories
	scorer  *churn.Scorer
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewCustomerService creates a customer service
func NewCustomerService(repos *repository.Repositories, log logger.Logger, m *metrics.Metrics) CustomerService {
	if log == nil {
		log = logger.Nop()
	}
	return &customerService{
		repos:   repos,
		scorer:  churn.NewScorer(),
		logger:  log,
		metrics: m,
	}
}

// Score runs the churn rules and records the probability
func (s *customerService) Score(rec churn.CustomerRecord) churn.ScoreResult {
	result := s.scorer.Score(rec)
	s.metrics.ObserveScore(result.Probability)
	return result
}

// GetCustomer loads a customer and attaches its churn analysis
func (s *customerService) GetCustomer(ctx context.Context, rawID string) (*CustomerDetail, error) {
	id, err := parseID(rawID, "GetCustomer")
	if err != nil {
		return nil, err
	}

	customer, err := s.repos.Customer.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrDB(err, "GetCustomer")
	}

	result := s.Score(customer.Record())
	s.logger.Debug("Scored customer", "customer_id", id, "probability", result.Probability)

	return &CustomerDetail{
		Customer:         customer,
		ChurnProbability: result.Probability,
		ChurnFactors:     result.Factors,
		ChurnStrategies:  result.Strategies,
		Encoded:          customer.Encode(),
	}, nil
}

// AddCustomer stores a new customer under the smallest unused positive ID
func (s *customerService) AddCustomer(ctx context.Context, req *models.NewCustomerRequest) (int64, error) {
	if req == nil {
		return 0, errors.InvalidInput("No customer data provided", nil).WithOperation("AddCustomer")
	}
	if req.Age == nil {
		return 0, errors.ValidationError("Missing required field: Age", nil).WithOperation("AddCustomer")
	}
	if strings.TrimSpace(req.Gender) == "" {
		return 0, errors.ValidationError("Missing required field: Gender", nil).WithOperation("AddCustomer")
	}

	customer := req.ToCustomer()
	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Customer.LockForInsert(ctx); err != nil {
			return err
		}
		id, err := repos.Customer.NextAvailableID(ctx)
		if err != nil {
			return err
		}
		customer.CustomerID = id
		return repos.Customer.Create(ctx, customer)
	})
	if err != nil {
		s.logger.Error("Failed to add customer", err)
		return 0, errors.DatabaseError("failed to add customer", err).WithOperation("AddCustomer")
	}

	s.metrics.CustomerCreated()
	s.logger.Info("Customer added", "customer_id", customer.CustomerID)
	return customer.CustomerID, nil
}

// DeleteCustomer removes a customer by ID
func (s *customerService) DeleteCustomer(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "DeleteCustomer")
	if err != nil {
		return err
	}

	if err := s.repos.Customer.Delete(ctx, id); err != nil {
		return notFoundOrDB(err, "DeleteCustomer")
	}

	s.metrics.CustomerDeleted()
	s.logger.Info("Customer deleted", "customer_id", id)
	return nil
}

// CountCustomers returns the number of stored customers
func (s *customerService) CountCustomers(ctx context.Context) (int64, error) {
	count, err := s.repos.Customer.Count(ctx)
	if err != nil {
		return 0, errors.DatabaseError("failed to count customers", err).WithOperation("CountCustomers")
	}
	return count, nil
}

// Suggest lists customers whose ID starts with the query, each with its churn risk
func (s *customerService) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	prefix := NormalizeQuery(query)
	if prefix == "" {
		return []Suggestion{}, nil
	}

	customers, err := s.repos.Customer.SearchByIDPrefix(ctx, prefix, SuggestionLimit)
	if err != nil {
		return nil, errors.DatabaseError("failed to search customers", err).WithOperation("Suggest")
	}

	suggestions := make([]Suggestion, 0, len(customers))
	for i := range customers {
		suggestions = append(suggestions, Suggestion{
			ID:   strconv.FormatInt(customers[i].CustomerID, 10),
			Risk: s.Score(customers[i].Record()).Probability,
		})
	}
	return suggestions, nil
}

// NormalizeQuery trims the query and rewrites integral numbers such as "12.0" to "12".
// Anything else is returned unchanged.
func NormalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(q, 64); err == nil && f == float64(int64(f)) && f >= 0 {
		return strconv.FormatInt(int64(f), 10)
	}
	return q
}

func parseID(rawID, op string) (int64, error) {
	id, err := models.ParseCustomerID(rawID)
	if err != nil {
		return 0, errors.InvalidInput("Invalid customer ID format", err).WithOperation(op)
	}
	return id, nil
}

func notFoundOrDB(err error, op string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("Customer not found", err).WithOperation(op)
	}
	return errors.DatabaseError("database error", err).WithOperation(op)
}
