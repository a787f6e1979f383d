package assessment

import (
	"strconv"
)

// Risk colors used on the result panel.
const (
	ColorLow     = "#198754"
	ColorMedium  = "#ffc107"
	ColorHigh    = "#dc3545"
	ColorUnknown = "#6c757d"
)

const (
	defaultRiskLevel = "N/A"
	// PricingPath is where the upgrade action links to.
	PricingPath = "/pricing/"
)

// Result is the backend's scoring response. Absent fields stay nil so
// FormatResult can apply the display defaults.
type Result struct {
	ReadinessScore *float64 `json:"readiness_score"`
	RiskLevel      *string  `json:"risk_level"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
}

// Action is one button under the result.
type Action struct {
	Label string
	Href  string
	// Reload starts the assessment over instead of following Href.
	Reload bool
}

// ResultView is the render model of the result panel.
type ResultView struct {
	Score      string
	ScoreText  string
	RiskLevel  string
	RiskColor  string
	Strengths  []string
	Weaknesses []string
	Actions    []Action
}

// RiskColor maps a risk level to its display color.
func RiskColor(level string) string {
	switch level {
	case "Low":
		return ColorLow
	case "Medium":
		return ColorMedium
	case "High":
		return ColorHigh
	default:
		return ColorUnknown
	}
}

// FormatResult builds the result panel model.
func FormatResult(r Result) ResultView {
	score := 0.0
	if r.ReadinessScore != nil {
		score = *r.ReadinessScore
	}
	risk := defaultRiskLevel
	if r.RiskLevel != nil {
		risk = *r.RiskLevel
	}
	scoreText := strconv.FormatFloat(score, 'f', -1, 64)
	return ResultView{
		Score:      scoreText,
		ScoreText:  "Readiness Score: " + scoreText,
		RiskLevel:  risk,
		RiskColor:  RiskColor(risk),
		Strengths:  nonNil(r.Strengths),
		Weaknesses: nonNil(r.Weaknesses),
		Actions: []Action{
			{Label: "Try Again", Reload: true},
			{Label: "Upgrade to Premium", Href: PricingPath},
		},
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
