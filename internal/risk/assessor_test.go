package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

var defaultHighRisk = []string{"oil", "gold", "diamonds"}

func TestAssessHighRiskScenario(t *testing.T) {
	// Oil at 600k with a 25% deposit and 20 days to delivery triggers
	// four factors for a total score of 4.
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assessor := NewAssessor(defaultHighRisk)
	result := assessor.Assess(Input{
		TotalValue:     decimal.NewFromInt(600_000),
		DepositPct:     25,
		Commodity:      "oil",
		DeliveryDate:   now.AddDate(0, 0, 20),
		AssessmentTime: now,
	})

	require.Equal(t, entities.RiskLevelHigh, result.Level)
	require.Equal(t, 4, result.Score)
	require.Equal(t, []string{"medium value", "below-standard deposit", "high-risk commodity", "short delivery timeline"}, result.Factors)
}

func TestAssessLevels(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		total     int64
		deposit   int64
		commodity string
		days      int
		level     entities.RiskLevel
		factors   []string
	}{
		{"benign trade", 100_000, 40, "wheat", 90, entities.RiskLevelLow, []string{}},
		{"high value only", 2_000_000, 40, "wheat", 90, entities.RiskLevelMedium, []string{"high value"}},
		{"low deposit only", 100_000, 10, "wheat", 90, entities.RiskLevelMedium, []string{"low deposit"}},
		{
			"everything wrong", 2_000_000, 10, "gold", 5, entities.RiskLevelHigh,
			[]string{"high value", "low deposit", "high-risk commodity", "short delivery timeline"},
		},
		{"single weight stays low", 600_000, 40, "wheat", 90, entities.RiskLevelLow, []string{"medium value"}},
	}

	assessor := NewAssessor(defaultHighRisk)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := assessor.Assess(Input{
				TotalValue:     decimal.NewFromInt(tc.total),
				DepositPct:     tc.deposit,
				Commodity:      tc.commodity,
				DeliveryDate:   now.AddDate(0, 0, tc.days),
				AssessmentTime: now,
			})
			require.Equal(t, tc.level, result.Level)
			require.Equal(t, tc.factors, result.Factors)
		})
	}
}

func TestAssessDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := Input{
		TotalValue:     decimal.NewFromInt(750_000),
		DepositPct:     22,
		Commodity:      "Oil", // case-insensitive match
		DeliveryDate:   now.AddDate(0, 0, 10),
		AssessmentTime: now,
	}

	assessor := NewAssessor(defaultHighRisk)
	first := assessor.Assess(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, assessor.Assess(in))
	}
	require.Contains(t, first.Factors, "high-risk commodity")
}
