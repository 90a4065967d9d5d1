package churn

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ajharbinger/churn-insight-api/internal/errors"
)

// ContractLength is the canonical string form of a customer's contract term
type ContractLength string

const (
	ContractMonthly   ContractLength = "Monthly"
	ContractQuarterly ContractLength = "Quarterly"
	ContractAnnual    ContractLength = "Annual"
	// ContractOther covers any term the rules do not recognise. It scores like Annual.
	ContractOther ContractLength = ""
)

// Code returns the presentation-layer numeric code (Monthly 0, Quarterly 1, Annual 2).
// Unknown terms map to 0 like the dataset preprocessing does.
func (c ContractLength) Code() int {
	switch c {
	case ContractQuarterly:
		return 1
	case ContractAnnual:
		return 2
	default:
		return 0
	}
}

// ParseContractLength normalizes a contract term given either as a string literal or as
// the numeric code produced by categorical preprocessing.
func ParseContractLength(value interface{}) ContractLength {
	switch v := value.(type) {
	case ContractLength:
		return v
	case string:
		s := strings.TrimSpace(v)
		switch strings.ToLower(s) {
		case "monthly":
			return ContractMonthly
		case "quarterly":
			return ContractQuarterly
		case "annual":
			return ContractAnnual
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return contractFromCode(f)
		}
		return ContractOther
	case int:
		return contractFromCode(float64(v))
	case int32:
		return contractFromCode(float64(v))
	case int64:
		return contractFromCode(float64(v))
	case float32:
		return contractFromCode(float64(v))
	case float64:
		return contractFromCode(v)
	default:
		return ContractOther
	}
}

func contractFromCode(f float64) ContractLength {
	switch f {
	case 0:
		return ContractMonthly
	case 1:
		return ContractQuarterly
	case 2:
		return ContractAnnual
	default:
		return ContractOther
	}
}

// CustomerRecord holds the fields the churn rules read.
// Callers are expected to supply non-negative values; the scorer does not validate.
type CustomerRecord struct {
	UsageFrequency  int            `json:"Usage Frequency"`
	ContractLength  ContractLength `json:"Contract Length"`
	PaymentDelay    int            `json:"Payment Delay"`
	Tenure          int            `json:"Tenure"`
	TotalSpend      float64        `json:"Total Spend"`
	SupportCalls    int            `json:"Support Calls"`
	LastInteraction int            `json:"Last Interaction"`
}

// Field names of a raw customer record
const (
	FieldUsageFrequency  = "Usage Frequency"
	FieldContractLength  = "Contract Length"
	FieldPaymentDelay    = "Payment Delay"
	FieldTenure          = "Tenure"
	FieldTotalSpend      = "Total Spend"
	FieldSupportCalls    = "Support Calls"
	FieldLastInteraction = "Last Interaction"
)

// RequiredFields lists every key RecordFromMap expects
var RequiredFields = []string{
	FieldUsageFrequency,
	FieldContractLength,
	FieldPaymentDelay,
	FieldTenure,
	FieldTotalSpend,
	FieldSupportCalls,
	FieldLastInteraction,
}

// RecordFromMap builds a CustomerRecord from a decoded JSON object.
// A missing key, a value of the wrong type, a negative number or a count above MaxInt32
// yields an INVALID_INPUT AppError.
func RecordFromMap(data map[string]interface{}) (CustomerRecord, error) {
	var rec CustomerRecord

	for _, field := range RequiredFields {
		if _, ok := data[field]; !ok {
			return rec, errors.InvalidInput("missing required field: "+field, nil).WithOperation("RecordFromMap")
		}
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{FieldUsageFrequency, &rec.UsageFrequency},
		{FieldPaymentDelay, &rec.PaymentDelay},
		{FieldTenure, &rec.Tenure},
		{FieldSupportCalls, &rec.SupportCalls},
		{FieldLastInteraction, &rec.LastInteraction},
	}
	for _, f := range ints {
		n, err := toInt(data[f.field])
		if err != nil {
			return rec, errors.InvalidInput("invalid value for field: "+f.field, err).WithOperation("RecordFromMap")
		}
		*f.dst = n
	}

	spend, err := toFloat(data[FieldTotalSpend])
	if err != nil {
		return rec, errors.InvalidInput("invalid value for field: "+FieldTotalSpend, err).WithOperation("RecordFromMap")
	}
	rec.TotalSpend = spend

	switch data[FieldContractLength].(type) {
	case string, float64, int, int64:
		rec.ContractLength = ParseContractLength(data[FieldContractLength])
	default:
		return rec, errors.InvalidInput("invalid value for field: "+FieldContractLength, nil).WithOperation("RecordFromMap")
	}

	return rec, nil
}

func toInt(v interface{}) (int, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		f = n
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
	if f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("expected integer in [0, %d], got %v", math.MaxInt32, v)
	}
	return int(f), nil
}

func toFloat(v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("expected finite number, got %v", n)
		}
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	if f < 0 {
		return 0, fmt.Errorf("expected non-negative number, got %v", v)
	}
	return f, nil
}
