package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/risklens/internal/domain/analysis"
)

// SchemaName is the identifier sent with the JSON-schema response format.
const SchemaName = "risk_analysis"

// SystemPrompt sets the skeptical risk-analyst persona and the scoring factors.
func SystemPrompt() string {
	return `You are an expert Freelance Business Consultant and Risk Analyst.
Your job is to protect freelancers from bad projects, scope creep, and profit loss.

Analyze the provided project details strictly and skeptically.
Do not be optimistic. Look for hidden risks.

Factors to score:
- Scope Clarity: Is it vague? (High Risk)
- Budget Adequacy: Is it too low for the work? (High Risk)
- Client Signals: Are they demanding, disorganized, or urgent? (High Risk)
- Timeline: Is it unrealistic? (High Risk)

If the data is missing, assume higher risk for that section.

Also provide specific contract clauses that the freelancer should include to protect themselves against the specific risks you identified.`
}

// UserPrompt builds the user-content block from the submission plus the
// optional client-history directive.
func UserPrompt(in analysis.ProjectInput, intel *analysis.ClientIntel) string {
	filesList := "None"
	if len(in.Files) > 0 {
		filesList = strings.Join(in.Files, ", ")
	}
	communication := in.Communication
	if strings.TrimSpace(communication) == "" {
		communication = "None provided"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT TITLE: %s\n\n", in.Title)
	fmt.Fprintf(&b, "DESCRIPTION:\n%s\n\n", in.Description)
	fmt.Fprintf(&b, "BUDGET: %s %s\n", in.Currency, in.Budget)
	fmt.Fprintf(&b, "TIMELINE: %s\n\n", in.Timeline)
	fmt.Fprintf(&b, "CLIENT COMMUNICATION / NOTES:\n%s\n\n", communication)
	fmt.Fprintf(&b, "ATTACHED FILES (Names: %s)\n", filesList)

	if directive := HistoryDirective(intel); directive != "" {
		b.WriteString(directive)
	}
	return b.String()
}

// HistoryDirective renders the client-history block that instructs the model
// to weight prior high-risk history upward. Empty when there is no history.
func HistoryDirective(intel *analysis.ClientIntel) string {
	if intel == nil || intel.TotalProjects == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n--- CLIENT HISTORY ALERT ---\n")
	fmt.Fprintf(&b, "This client (%s) has %d previous analysis records.\n", intel.Name, intel.TotalProjects)
	fmt.Fprintf(&b, "Average Risk Score: %.0f\n", intel.AvgRiskScore)
	fmt.Fprintf(&b, "High Risk Projects: %d\n\n", intel.HighRiskCount)
	b.WriteString("CONSIDER THIS HISTORY IN YOUR RISK ASSESSMENT. IF THEY HAVE A HISTORY OF HIGH RISK, INCREASE THE RISK SCORE.\n")
	return b.String()
}

// ParseAssessment decodes the provider body and validates it against the
// contract. A parse or validation failure fails the whole operation; no
// partial result is accepted.
func ParseAssessment(raw string) (*analysis.RiskAssessment, error) {
	var a analysis.RiskAssessment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}
	if err := ValidateAssessment(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ValidateAssessment enforces the schema bounds and enums.
func ValidateAssessment(a *analysis.RiskAssessment) error {
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return fmt.Errorf("risk score %d out of range [0,100]", a.RiskScore)
	}
	switch a.RiskLevel {
	case analysis.RiskLow, analysis.RiskMedium, analysis.RiskHigh:
	default:
		return fmt.Errorf("invalid risk level: %q", a.RiskLevel)
	}
	switch a.Recommendation {
	case analysis.RecommendAccept, analysis.RecommendNegotiate, analysis.RecommendReject:
	default:
		return fmt.Errorf("invalid recommendation: %q", a.Recommendation)
	}
	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	return nil
}
