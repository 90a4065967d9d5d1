package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
	apperrors "github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/importer"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/services"
)

// mockCustomerService implements services.CustomerService for testing
type mockCustomerService struct {
	customers   map[string]*services.CustomerDetail
	suggestions []services.Suggestion
	nextID      int64
	added       []*models.NewCustomerRequest
	shouldError bool
}

func newMockCustomerService() *mockCustomerService {
	c := &models.Customer{
		CustomerID:       2,
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
	result := churn.Predict(c.Record())
	return &mockCustomerService{
		customers: map[string]*services.CustomerDetail{
			"2": {
				Customer:         c,
				ChurnProbability: result.Probability,
				ChurnFactors:     result.Factors,
				ChurnStrategies:  result.Strategies,
				Encoded:          c.Encode(),
			},
		},
		suggestions: []services.Suggestion{{ID: "2", Risk: result.Probability}, {ID: "20", Risk: 35}},
		nextID:      7,
	}
}

func (m *mockCustomerService) GetCustomer(_ context.Context, rawID string) (*services.CustomerDetail, error) {
	if m.shouldError {
		return nil, apperrors.DatabaseError("database error", errors.New("mock error"))
	}
	if _, err := models.ParseCustomerID(rawID); err != nil {
		return nil, apperrors.InvalidInput("Invalid customer ID format", err)
	}
	detail, ok := m.customers[rawID]
	if !ok {
		return nil, apperrors.NotFound("Customer not found", nil)
	}
	return detail, nil
}

func (m *mockCustomerService) AddCustomer(_ context.Context, req *models.NewCustomerRequest) (int64, error) {
	if m.shouldError {
		return 0, apperrors.DatabaseError("failed to add customer", errors.New("mock error"))
	}
	m.added = append(m.added, req)
	return m.nextID, nil
}

func (m *mockCustomerService) DeleteCustomer(_ context.Context, rawID string) error {
	if _, ok := m.customers[rawID]; !ok {
		return apperrors.NotFound("Customer not found", nil)
	}
	delete(m.customers, rawID)
	return nil
}

func (m *mockCustomerService) CountCustomers(context.Context) (int64, error) {
	if m.shouldError {
		return 0, errors.New("mock error")
	}
	return int64(len(m.customers)), nil
}

func (m *mockCustomerService) Suggest(_ context.Context, query string) ([]services.Suggestion, error) {
	if query == "" {
		return []services.Suggestion{}, nil
	}
	return m.suggestions, nil
}

func (m *mockCustomerService) Score(rec churn.CustomerRecord) churn.ScoreResult {
	return churn.Predict(rec)
}

// mockImportService implements services.ImportService for testing
type mockImportService struct {
	lastBody    string
	lastOptions services.ImportOptions
}

func (m *mockImportService) Import(_ context.Context, r io.Reader, opts services.ImportOptions) (*services.ImportReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.lastBody = string(data)
	m.lastOptions = opts
	return &services.ImportReport{
		Read:        3,
		Imported:    2,
		Skipped:     1,
		SkippedRows: []importer.SkippedRow{{Line: 3, Reason: "customer ID is empty"}},
	}, nil
}

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) HealthCheckContext(context.Context) error {
	return m.err
}

func createMultipartCSV(filename, content string, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	fileWriter, err := writer.CreateFormFile("csv_file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
