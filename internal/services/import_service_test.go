package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/importer"
	"github.com/ajharbinger/churn-insight-api/internal/logger"
	"github.com/ajharbinger/churn-insight-api/internal/metrics"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
)

func csvWithRows(n int) string {
	var sb strings.Builder
	sb.WriteString("CustomerID,Age,Gender,Tenure,Usage Frequency,Contract Length,Total Spend\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d,30,Female,12,10,Quarterly,300.5\n", i)
	}
	return sb.String()
}

func TestImportService_Batches(t *testing.T) {
	repos, customers, tx := newMockRepos()
	m := metrics.New()
	svc := NewImportService(repos, importer.NewParser(), 2, logger.Nop(), m)

	report, err := svc.Import(context.Background(), strings.NewReader(csvWithRows(5)), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Read)
	assert.Equal(t, 5, report.Imported)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 1, tx.commits)
	require.Len(t, customers.upserts, 3)
	assert.Len(t, customers.upserts[0], 2)
	assert.Len(t, customers.upserts[2], 1)
	assert.Equal(t, "Quarterly", customers.customers[5].ContractLength)
}

func TestImportService_ClampsBatchSize(t *testing.T) {
	repos, customers, _ := newMockRepos()
	svc := NewImportService(repos, importer.NewParser(), 100000, logger.Nop(), nil)

	rows := repository.MaxUpsertBatchSize + 10
	report, err := svc.Import(context.Background(), strings.NewReader(csvWithRows(rows)), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, rows, report.Imported)
	require.Len(t, customers.upserts, 2)
	assert.Len(t, customers.upserts[0], repository.MaxUpsertBatchSize)
	assert.Len(t, customers.upserts[1], 10)
}

func TestImportService_TruncateReplacesRows(t *testing.T) {
	repos, customers, _ := newMockRepos(customer(500), customer(501))
	svc := NewImportService(repos, importer.NewParser(), 0, nil, nil)

	report, err := svc.Import(context.Background(), strings.NewReader(csvWithRows(3)), ImportOptions{Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Deleted)
	assert.Len(t, customers.customers, 3)
	_, stillThere := customers.customers[500]
	assert.False(t, stillThere)
}

func TestImportService_UpsertKeepsOtherRows(t *testing.T) {
	existing := customer(2)
	existing.Age = 77
	repos, customers, _ := newMockRepos(existing, customer(900))
	svc := NewImportService(repos, importer.NewParser(), 1000, logger.Nop(), nil)

	_, err := svc.Import(context.Background(), strings.NewReader(csvWithRows(3)), ImportOptions{})
	require.NoError(t, err)
	assert.Len(t, customers.customers, 4)
	assert.Equal(t, 30, customers.customers[2].Age)
}

func TestImportService_ReportsSkippedRows(t *testing.T) {
	repos, _, _ := newMockRepos()
	svc := NewImportService(repos, importer.NewParser(), 1000, logger.Nop(), nil)

	data := "CustomerID,Age\n1,20\nbad,20\n3,20\n"
	report, err := svc.Import(context.Background(), strings.NewReader(data), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Read)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.SkippedRows, 1)
	assert.Equal(t, 3, report.SkippedRows[0].Line)
}

func TestImportService_Errors(t *testing.T) {
	repos, customers, tx := newMockRepos(customer(1))
	svc := NewImportService(repos, importer.NewParser(), 1000, logger.Nop(), nil)

	_, err := svc.Import(context.Background(), strings.NewReader("Age,Gender\n1,Male\n"), ImportOptions{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationError))

	customers.failWith = errors.New("disk full")
	_, err = svc.Import(context.Background(), strings.NewReader(csvWithRows(2)), ImportOptions{Truncate: true})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
	assert.Equal(t, 1, tx.rollbacks)
	customers.failWith = nil
	assert.Len(t, customers.customers, 1)
}
