// Package importer reads the customer churn CSV export and turns each row into a
// customer ready to be stored. Missing or unparsable cells fall back to per-column defaults.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ajharbinger/churn-insight-api/internal/models"
)

// Column names in the CSV header
const (
	ColCustomerID       = "CustomerID"
	ColAge              = "Age"
	ColGender           = "Gender"
	ColTenure           = "Tenure"
	ColUsageFrequency   = "Usage Frequency"
	ColSupportCalls     = "Support Calls"
	ColPaymentDelay     = "Payment Delay"
	ColSubscriptionType = "Subscription Type"
	ColContractLength   = "Contract Length"
	ColTotalSpend       = "Total Spend"
	ColLastInteraction  = "Last Interaction"
	ColChurn            = "Churn"
	ColPaymentMethod    = "PaymentMethod"
)

// DefaultGender is used for rows with an empty Gender cell
const DefaultGender = "Unknown"

// ErrMissingIDColumn is returned when the header has no CustomerID column
var ErrMissingIDColumn = errors.New("CSV header has no CustomerID column")

// SkippedRow describes a data row that was not imported
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result is the outcome of parsing a CSV file
type Result struct {
	Customers []models.Customer
	Read      int
	Skipped   []SkippedRow
}

// row is the cleaned form of one CSV line; counts must not be negative
type row struct {
	CustomerID      int64   `validate:"gt=0"`
	Age             int     `validate:"min=0,max=150"`
	Tenure          int     `validate:"min=0"`
	UsageFrequency  int     `validate:"min=0"`
	SupportCalls    int     `validate:"min=0"`
	PaymentDelay    int     `validate:"min=0"`
	TotalSpend      float64 `validate:"min=0"`
	LastInteraction int     `validate:"min=0"`
	Churn           int     `validate:"oneof=0 1"`
}

// Parser converts CSV rows into customers
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a new CSV parser
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// Parse reads every data row from r. Rows whose CustomerID is unusable, repeated, or
// whose numeric cells fail validation are reported in Result.Skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := columns[ColCustomerID]; !ok {
		return nil, ErrMissingIDColumn
	}

	result := &Result{}
	seen := make(map[int64]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Read++
				result.Skipped = append(result.Skipped, SkippedRow{Line: parseErr.StartLine, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		result.Read++
		line, _ := reader.FieldPos(0)

		cells := cellReader{columns: columns, record: record}
		customer, err := p.clean(cells)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}

		if first, dup := seen[customer.CustomerID]; dup {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("duplicate CustomerID %d, first seen on line %d", customer.CustomerID, first),
			})
			continue
		}
		seen[customer.CustomerID] = line
		result.Customers = append(result.Customers, *customer)
	}

	return result, nil
}

func (p *Parser) clean(cells cellReader) (*models.Customer, error) {
	id, err := models.ParseCustomerID(cells.get(ColCustomerID))
	if err != nil {
		return nil, err
	}

	c := &models.Customer{
		CustomerID:       id,
		Age:              cleanInt(cells.get(ColAge), 0),
		Gender:           cleanString(cells.get(ColGender), DefaultGender),
		Tenure:           cleanInt(cells.get(ColTenure), 0),
		UsageFrequency:   cleanInt(cells.get(ColUsageFrequency), 0),
		SupportCalls:     cleanInt(cells.get(ColSupportCalls), 0),
		PaymentDelay:     cleanInt(cells.get(ColPaymentDelay), 0),
		SubscriptionType: cleanString(cells.get(ColSubscriptionType), models.DefaultSubscriptionType),
		ContractLength:   cleanString(cells.get(ColContractLength), models.DefaultContractLength),
		TotalSpend:       cleanFloat(cells.get(ColTotalSpend), 0),
		LastInteraction:  cleanInt(cells.get(ColLastInteraction), 0),
		Churn:            cleanInt(cells.get(ColChurn), 0),
		PaymentMethod:    cleanString(cells.get(ColPaymentMethod), models.DefaultPaymentMethod),
	}

	err = p.validate.Struct(row{
		CustomerID:      c.CustomerID,
		Age:             c.Age,
		Tenure:          c.Tenure,
		UsageFrequency:  c.UsageFrequency,
		SupportCalls:    c.SupportCalls,
		PaymentDelay:    c.PaymentDelay,
		TotalSpend:      c.TotalSpend,
		LastInteraction: c.LastInteraction,
		Churn:           c.Churn,
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid %s: %v", verrs[0].Field(), verrs[0].Value())
		}
		return nil, err
	}

	return c, nil
}

type cellReader struct {
	columns map[string]int
	record  []string
}

// get returns the trimmed cell for a column, or "" when the column or cell is absent
func (r cellReader) get(column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return true
	}
	return false
}

func cleanString(s, def string) string {
	if isMissing(s) {
		return def
	}
	return s
}

// cleanInt accepts whole numbers and float text such as "12.0"; fractions are truncated
func cleanInt(s string, def int) int {
	if isMissing(s) {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return def
	}
	return int(math.Trunc(f))
}

func cleanFloat(s string, def float64) float64 {
	if isMissing(s) {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
