package services

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/importer"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
)

// DefaultImportBatchSize is the number of rows written per INSERT statement
const DefaultImportBatchSize = 1000

// ImportOptions controls how an import treats existing rows
type ImportOptions struct {
	// Truncate deletes every existing customer before inserting
	Truncate bool
}

// ImportReport summarizes a finished import
type ImportReport struct {
	Read        int                   `json:"read"`
	Imported    int                   `json:"imported"`
	Skipped     int                   `json:"skipped"`
	Deleted     int64                 `json:"deleted,omitempty"`
	SkippedRows []importer.SkippedRow `json:"skipped_rows,omitempty"`
}

// importService implements ImportService
type importService struct {
	repos     *repository.Repositories
	parser    *importer.Parser
	batchSize int
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewImportService creates an import service
func NewImportService(repos *repository.Repositories, parser *importer.Parser, batchSize int, log logger.Logger, m *metrics.Metrics) ImportService {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	if batchSize > repository.MaxUpsertBatchSize {
		batchSize = repository.MaxUpsertBatchSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &importService{
		repos:     repos,
		parser:    parser,
		batchSize: batchSize,
		logger:    log,
		metrics:   m,
	}
}

// Import parses the CSV and writes all usable rows in one transaction
func (s *importService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportReport, error) {
	result, err := s.parser.Parse(r)
	if err != nil {
		if stderrors.Is(err, importer.ErrMissingIDColumn) {
			return nil, errors.ValidationError("invalid CSV", err).WithDetails(err.Error()).WithOperation("Import")
		}
		return nil, errors.InvalidInput("failed to parse CSV", err).WithDetails(err.Error()).WithOperation("Import")
	}

	report := &ImportReport{
		Read:        result.Read,
		Skipped:     len(result.Skipped),
		SkippedRows: result.Skipped,
	}
	for _, skipped := range result.Skipped {
		s.logger.Warn("Skipping CSV row", "line", skipped.Line, "reason", skipped.Reason)
	}

	s.logger.Info("Starting customer import", "rows", len(result.Customers), "truncate", opts.Truncate, "batch_size", s.batchSize)

	err = s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if opts.Truncate {
			deleted, err := repos.Customer.DeleteAll(ctx)
			if err != nil {
				return err
			}
			report.Deleted = deleted
		}

		total := len(result.Customers)
		for start := 0; start < total; start += s.batchSize {
			end := start + s.batchSize
			if end > total {
				end = total
			}
			if _, err := repos.Customer.UpsertBatch(ctx, result.Customers[start:end]); err != nil {
				return err
			}
			s.logger.Debug("Inserted batch", "progress", end, "total", total)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Customer import failed", err)
		return nil, errors.DatabaseError("failed to import customers", err).WithOperation("Import")
	}

	report.Imported = len(result.Customers)
	s.metrics.ImportFinished(report.Imported, report.Skipped)
	s.logger.Info("Customer import completed", "read", report.Read, "imported", report.Imported, "skipped", report.Skipped)
	return report, nil
}
