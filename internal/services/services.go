package services

import (
	"context"
	"database/sql"
	"io"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
	"github.com/ajharbinger/churn-insight-api/internal/importer"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

// Services contains all application services
type Services struct {
	Customer CustomerService
	Import   ImportService
	Auth     AuthService
}

// CustomerService defines the interface for customer business logic
type CustomerService interface {
	GetCustomer(ctx context.Context, rawID string) (*CustomerDetail, error)
	AddCustomer(ctx context.Context, req *models.NewCustomerRequest) (int64, error)
	DeleteCustomer(ctx context.Context, rawID string) error
	CountCustomers(ctx context.Context) (int64, error)
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
	Score(rec churn.CustomerRecord) churn.ScoreResult
}

// ImportService defines the interface for bulk CSV imports
type ImportService interface {
	Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportReport, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	RefreshToken(ctx context.Context, token string) (*models.LoginResponse, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, cfg *config.Config, log logger.Logger, m *metrics.Metrics) *Services {
	repos := repository.NewRepositories(db)

	return &Services{
		Customer: NewCustomerService(repos, log, m),
		Import:   NewImportService(repos, importer.NewParser(), cfg.ImportBatchSize, log, m),
		Auth:     NewAuthService(repos, cfg),
	}
}
