package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
)

// Defaults applied to customers created through the API or the CSV importer
const (
	DefaultPaymentMethod    = "Electronic check"
	DefaultSubscriptionType = "Basic"
	DefaultContractLength   = "Monthly"
	DefaultGender           = "Male"
)

// Customer represents a row of the customers table
type Customer struct {
	CustomerID       int64   `json:"CustomerID" db:"customer_id"`
	Age              int     `json:"Age" db:"age"`
	Gender           string  `json:"Gender" db:"gender"`
	Tenure           int     `json:"Tenure" db:"tenure"`
	UsageFrequency   int     `json:"Usage Frequency" db:"usage_frequency"`
	SupportCalls     int     `json:"Support Calls" db:"support_calls"`
	PaymentDelay     int     `json:"Payment Delay" db:"payment_delay"`
	SubscriptionType string  `json:"Subscription Type" db:"subscription_type"`
	ContractLength   string  `json:"Contract Length" db:"contract_length"`
	TotalSpend       float64 `json:"Total Spend" db:"total_spend"`
	LastInteraction  int     `json:"Last Interaction" db:"last_interaction"`
	Churn            int     `json:"Churn" db:"churn"`
	PaymentMethod    string  `json:"PaymentMethod" db:"payment_method"`
}

// Record projects the customer onto the fields the churn scorer reads
func (c *Customer) Record() churn.CustomerRecord {
	return churn.CustomerRecord{
		UsageFrequency:  c.UsageFrequency,
		ContractLength:  churn.ParseContractLength(c.ContractLength),
		PaymentDelay:    c.PaymentDelay,
		Tenure:          c.Tenure,
		TotalSpend:      c.TotalSpend,
		SupportCalls:    c.SupportCalls,
		LastInteraction: c.LastInteraction,
	}
}

// NewCustomerRequest is the body accepted when adding a customer.
// Only Age and Gender are required; everything else falls back to a default.
type NewCustomerRequest struct {
	Age              *int     `json:"Age" binding:"required,min=0,max=150"`
	Gender           string   `json:"Gender" binding:"required"`
	Tenure           *int     `json:"Tenure" binding:"omitempty,min=0"`
	UsageFrequency   *int     `json:"Usage Frequency" binding:"omitempty,min=0"`
	SupportCalls     *int     `json:"Support Calls" binding:"omitempty,min=0"`
	PaymentDelay     *int     `json:"Payment Delay" binding:"omitempty,min=0"`
	SubscriptionType *string  `json:"Subscription Type" binding:"omitempty,oneof=Basic Standard Premium"`
	ContractLength   *string  `json:"Contract Length" binding:"omitempty,oneof=Monthly Quarterly Annual"`
	TotalSpend       *float64 `json:"Total Spend" binding:"omitempty,min=0"`
	LastInteraction  *int     `json:"Last Interaction" binding:"omitempty,min=0"`
	PaymentMethod    *string  `json:"PaymentMethod"`
	// The dashboard sends the payment method with a space in the key.
	PaymentMethodAlt *string `json:"Payment Method"`
}

// ToCustomer applies defaults and returns the customer to insert. The ID is left zero.
func (r *NewCustomerRequest) ToCustomer() *Customer {
	c := &Customer{
		Gender:           strings.TrimSpace(r.Gender),
		Tenure:           1,
		UsageFrequency:   1,
		SubscriptionType: DefaultSubscriptionType,
		ContractLength:   DefaultContractLength,
		PaymentMethod:    DefaultPaymentMethod,
	}
	if c.Gender == "" {
		c.Gender = DefaultGender
	}
	if r.Age != nil {
		c.Age = *r.Age
	}
	if r.Tenure != nil {
		c.Tenure = *r.Tenure
	}
	if r.UsageFrequency != nil {
		c.UsageFrequency = *r.UsageFrequency
	}
	if r.SupportCalls != nil {
		c.SupportCalls = *r.SupportCalls
	}
	if r.PaymentDelay != nil {
		c.PaymentDelay = *r.PaymentDelay
	}
	if r.SubscriptionType != nil && *r.SubscriptionType != "" {
		c.SubscriptionType = *r.SubscriptionType
	}
	if r.ContractLength != nil && *r.ContractLength != "" {
		c.ContractLength = *r.ContractLength
	}
	if r.TotalSpend != nil {
		c.TotalSpend = *r.TotalSpend
	}
	if r.LastInteraction != nil {
		c.LastInteraction = *r.LastInteraction
	}
	switch {
	case r.PaymentMethod != nil && *r.PaymentMethod != "":
		c.PaymentMethod = *r.PaymentMethod
	case r.PaymentMethodAlt != nil && *r.PaymentMethodAlt != "":
		c.PaymentMethod = *r.PaymentMethodAlt
	}
	return c
}

// Encoded holds the numeric encodings of a customer's categorical fields
type Encoded struct {
	Gender           int `json:"Gender"`
	SubscriptionType int `json:"Subscription Type"`
	ContractLength   int `json:"Contract Length"`
}

// Encode returns the numeric encodings used by the analytics dashboards
func (c *Customer) Encode() Encoded {
	return Encoded{
		Gender:           EncodeGender(c.Gender),
		SubscriptionType: EncodeSubscription(c.SubscriptionType),
		ContractLength:   churn.ParseContractLength(c.ContractLength).Code(),
	}
}

// EncodeGender maps female to 1 and anything else to 0
func EncodeGender(gender string) int {
	if strings.EqualFold(strings.TrimSpace(gender), "female") {
		return 1
	}
	return 0
}

// EncodeSubscription maps Basic/Standard/Premium to 0/1/2; unknown plans map to 0
func EncodeSubscription(plan string) int {
	switch plan {
	case "Standard":
		return 1
	case "Premium":
		return 2
	default:
		return 0
	}
}

// ParseCustomerID accepts "42", "42.0" or " 42 " and rejects anything that is not a
// positive whole number.
func ParseCustomerID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("customer ID is empty")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("customer ID must be positive: %q", raw)
		}
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("customer ID is not a whole number: %q", raw)
	}
	if f <= 0 || f > maxExactFloatID {
		return 0, fmt.Errorf("customer ID out of range: %q", raw)
	}
	return int64(f), nil
}

// Largest integer a float64 holds exactly
const maxExactFloatID = 1 << 53
