package churn

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Factor names, in the order the rules insert them
const (
	FactorUsageFrequency   = "Usage Frequency Impact"
	FactorContractType     = "Contract Type Risk"
	FactorPaymentMethod    = "Payment Method Risk"
	FactorTenure           = "Tenure Risk"
	FactorFinancialImpact  = "Financial Impact"
	FactorSupportVolume    = "Support Ticket Volume"
	FactorHighSupportCalls = "High Support Calls"
	FactorRecentInactivity = "Recent Inactivity"
	FactorLowUsage         = "Low Usage"
	FactorShortContract    = "Short Contract"
	FactorNewCustomer      = "New Customer"
)

// Strategy texts
const (
	RetentionHighRisk     = "High-risk customer requires immediate intervention"
	RetentionModerateRisk = "Moderate risk - implement preventive measures"
	RetentionLowRisk      = "Low risk - maintain current engagement level"
	EngagementStrategy    = "Increase touchpoints and personalized communication based on usage patterns"
	PricingLoyalty        = "Consider offering loyalty discounts or value-added services"
	PricingUpsell         = "Opportunity for service upgrades and cross-selling"
	ServiceImprove        = "Focus on improving areas with low satisfaction scores"
	ServiceMaintain       = "Maintain current service quality"
)

// MaxProbability caps the accumulated risk score
const MaxProbability = 100

// Factor is one contributing risk factor and its weight.
// Before normalization the weight is the raw rule weight; afterwards it is a percentage.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Factors is an ordered list of factors. It serializes as a JSON object whose key order
// follows the slice order.
type Factors []Factor

// MarshalJSON implements json.Marshaler
func (f Factors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, factor := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(factor.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(factor.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the weight of the named factor
func (f Factors) Get(name string) (float64, bool) {
	for _, factor := range f {
		if factor.Name == name {
			return factor.Weight, true
		}
	}
	return 0, false
}

// Names returns factor names in order
func (f Factors) Names() []string {
	names := make([]string, len(f))
	for i, factor := range f {
		names[i] = factor.Name
	}
	return names
}

// Total sums all factor weights
func (f Factors) Total() float64 {
	var total float64
	for _, factor := range f {
		total += factor.Weight
	}
	return total
}

// Strategies holds the four recommendation texts
type Strategies struct {
	RetentionFocus      string `json:"retention_focus"`
	EngagementStrategy  string `json:"engagement_strategy"`
	PricingOptimization string `json:"pricing_optimization"`
	ServiceEnhancement  string `json:"service_enhancement"`
}

// ScoreResult is the output of scoring one customer
type ScoreResult struct {
	Probability int        `json:"probability"`
	Factors     Factors    `json:"factors"`
	Strategies  Strategies `json:"strategies"`
}

// Scorer applies the churn-risk rules. It has no state and is safe for concurrent use.
type Scorer struct{}

// NewScorer creates a new churn scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Predict scores a record with a zero-value Scorer
func Predict(rec CustomerRecord) ScoreResult {
	return (&Scorer{}).Score(rec)
}

// Score evaluates every rule against the record, clamps the probability, normalizes the
// factor weights to percentages and selects the strategy texts.
func (s *Scorer) Score(rec CustomerRecord) ScoreResult {
	probability := 0
	factors := make(Factors, 0, 11)
	add := func(name string, weight float64) {
		factors = append(factors, Factor{Name: name, Weight: weight})
	}

	switch {
	case rec.UsageFrequency < 5:
		probability += 15
		add(FactorUsageFrequency, 50)
	case rec.UsageFrequency < 10:
		probability += 10
		add(FactorUsageFrequency, 30)
	}

	switch rec.ContractLength {
	case ContractMonthly:
		probability += 20
		add(FactorContractType, 40)
	case ContractQuarterly:
		probability += 10
		add(FactorContractType, 25)
	}

	if rec.PaymentDelay > 0 {
		probability += 15
		add(FactorPaymentMethod, 30)
	}

	switch {
	case rec.Tenure < 6:
		probability += 15
		add(FactorTenure, 25)
	case rec.Tenure < 12:
		probability += 10
		add(FactorTenure, 15)
	}

	monthlySpend := MonthlySpend(rec)
	if monthlySpend > 100 {
		probability += 10
		add(FactorFinancialImpact, 25)
	}

	switch {
	case rec.SupportCalls > 3:
		probability += 20
		add(FactorSupportVolume, 15)
		add(FactorHighSupportCalls, 20)
	case rec.SupportCalls > 1:
		probability += 10
		add(FactorSupportVolume, 10)
	}

	if rec.LastInteraction > 30 {
		probability += 25
		add(FactorRecentInactivity, 25)
	}

	// Secondary signals shape the factor mix without moving the probability.
	if rec.UsageFrequency < 3 {
		add(FactorLowUsage, 15)
	}
	if rec.ContractLength == ContractMonthly {
		add(FactorShortContract, 10)
	}
	if rec.Tenure < 3 {
		add(FactorNewCustomer, 15)
	}

	if probability > MaxProbability {
		probability = MaxProbability
	}

	return ScoreResult{
		Probability: probability,
		Factors:     normalize(factors),
		Strategies:  selectStrategies(probability, monthlySpend, rec.SupportCalls),
	}
}

// MonthlySpend divides total spend by tenure, treating a tenure below one month as one.
func MonthlySpend(rec CustomerRecord) float64 {
	tenure := rec.Tenure
	if tenure < 1 {
		tenure = 1
	}
	return rec.TotalSpend / float64(tenure)
}

// normalize converts raw weights into percentages of their sum and orders them by
// descending weight. Equal weights keep insertion order.
func normalize(factors Factors) Factors {
	total := factors.Total()
	if total > 0 {
		for i := range factors {
			factors[i].Weight = Round2(factors[i].Weight / total * 100)
		}
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Weight > factors[j].Weight
	})
	return factors
}

// Round2 rounds to two decimal places, resolving exact ties to even on the binary value.
func Round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

func selectStrategies(probability int, monthlySpend float64, supportCalls int) Strategies {
	strategies := Strategies{
		RetentionFocus:      RetentionLowRisk,
		EngagementStrategy:  EngagementStrategy,
		PricingOptimization: PricingUpsell,
		ServiceEnhancement:  ServiceMaintain,
	}

	switch {
	case probability > 70:
		strategies.RetentionFocus = RetentionHighRisk
	case probability > 40:
		strategies.RetentionFocus = RetentionModerateRisk
	}

	if monthlySpend > 70 {
		strategies.PricingOptimization = PricingLoyalty
	}

	if supportCalls > 2 {
		strategies.ServiceEnhancement = ServiceImprove
	}

	return strategies
}
