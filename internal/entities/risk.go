package entities

// RiskLevel is the mapped risk classification of a trade.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// RiskAssessment is the result of evaluating the rule table over a
// trade: the mapped level, the raw score and the ordered list of
// triggered factor labels kept for audit.
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Score   int       `json:"score"`
	Factors []string  `json:"factors"`
}
