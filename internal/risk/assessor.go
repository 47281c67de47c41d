// Package risk scores counterparty/trade risk from a declarative rule
// table. Deterministic and side-effect free.
package risk

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

// Score thresholds for mapping the summed weights to a level.
const (
	highScoreThreshold   = 4
	mediumScoreThreshold = 2
)

// Input is the slice of trade terms and metadata the rules evaluate.
type Input struct {
	TotalValue     decimal.Decimal
	DepositPct     int64
	Commodity      string
	DeliveryDate   time.Time
	AssessmentTime time.Time // defaults to now when zero
}

// DaysToDelivery is the whole number of days between assessment time and
// the delivery date.
func (in Input) DaysToDelivery() int {
	at := in.AssessmentTime
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return int(in.DeliveryDate.Sub(at).Hours() / 24)
}

// Rule is one scoring condition: when Applies holds, Weight joins the
// score and Label joins the audit trail.
type Rule struct {
	Label   string
	Weight  int
	Applies func(Input) bool
}

// Assessor evaluates its rule table in order and maps the summed score
// to a risk level.
type Assessor struct {
	rules []Rule
}

// NewAssessor builds an assessor with the default rule table. Commodities
// listed in highRiskCommodities trigger the commodity rule (matched
// case-insensitively).
func NewAssessor(highRiskCommodities []string) *Assessor {
	risky := make(map[string]bool, len(highRiskCommodities))
	for _, c := range highRiskCommodities {
		risky[strings.ToLower(strings.TrimSpace(c))] = true
	}

	million := decimal.NewFromInt(1_000_000)
	halfMillion := decimal.NewFromInt(500_000)

	return &Assessor{
		rules: []Rule{
			{
				Label:   "high value",
				Weight:  2,
				Applies: func(in Input) bool { return in.TotalValue.GreaterThan(million) },
			},
			{
				Label:  "medium value",
				Weight: 1,
				Applies: func(in Input) bool {
					return in.TotalValue.GreaterThan(halfMillion) && in.TotalValue.LessThanOrEqual(million)
				},
			},
			{
				Label:   "low deposit",
				Weight:  2,
				Applies: func(in Input) bool { return in.DepositPct < 20 },
			},
			{
				Label:   "below-standard deposit",
				Weight:  1,
				Applies: func(in Input) bool { return in.DepositPct >= 20 && in.DepositPct < 30 },
			},
			{
				Label:   "high-risk commodity",
				Weight:  1,
				Applies: func(in Input) bool { return risky[strings.ToLower(strings.TrimSpace(in.Commodity))] },
			},
			{
				Label:  "short delivery timeline",
				Weight: 1,
				Applies: func(in Input) bool {
					return !in.DeliveryDate.IsZero() && in.DaysToDelivery() < 30
				},
			},
		},
	}
}

// Assess evaluates every rule and returns the level together with the
// ordered list of triggered factor labels.
func (a *Assessor) Assess(in Input) entities.RiskAssessment {
	score := 0
	factors := make([]string, 0, len(a.rules))

	for _, rule := range a.rules {
		if rule.Applies(in) {
			score += rule.Weight
			factors = append(factors, rule.Label)
		}
	}

	level := entities.RiskLevelLow
	switch {
	case score >= highScoreThreshold:
		level = entities.RiskLevelHigh
	case score >= mediumScoreThreshold:
		level = entities.RiskLevelMedium
	}

	return entities.RiskAssessment{
		Level:   level,
		Score:   score,
		Factors: factors,
	}
}
