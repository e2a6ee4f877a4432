package analysis

import (
	"time"
)

// ID tipe untuk Record
type RecordID string

// Status enum
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RiskLevel enum
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Recommendation enum
type Recommendation string

const (
	RecommendAccept    Recommendation = "Accept"
	RecommendNegotiate Recommendation = "Negotiate"
	RecommendReject    Recommendation = "Reject"
)

// ProjectInput is the submission a freelancer makes for one analysis.
// File content extraction is not owned here; only names travel with the input.
type ProjectInput struct {
	Title         string   `json:"title"`
	ClientName    string   `json:"client_name,omitempty"`
	Description   string   `json:"description"`
	Budget        string   `json:"budget"`
	Currency      string   `json:"currency"`
	Timeline      string   `json:"timeline"`
	Communication string   `json:"communication,omitempty"`
	Files         []string `json:"files,omitempty"`
}

// ContractClause is one suggested protective clause from the provider.
type ContractClause struct {
	Title       string `json:"title"`
	Clause      string `json:"clause"`
	Explanation string `json:"explanation"`
}

// RiskAssessment is the structured result the provider must return.
// Field names are the wire contract; any schema violation is a hard failure.
type RiskAssessment struct {
	RiskScore         int              `json:"riskScore"`
	RiskLevel         RiskLevel        `json:"riskLevel"`
	Recommendation    Recommendation   `json:"recommendation"`
	Summary           string           `json:"summary"`
	RedFlags          []string         `json:"redFlags"`
	TechnicalAnalysis string           `json:"technicalAnalysis"`
	BudgetAnalysis    string           `json:"budgetAnalysis"`
	ClientAnalysis    string           `json:"clientAnalysis"`
	NegotiationPoints []string         `json:"negotiationPoints"`
	QuestionsToAsk    []string         `json:"questionsToAsk"`
	ContractClauses   []ContractClause `json:"contractClauses"`
}

// MilestoneStatus enum
type MilestoneStatus string

const (
	MilestonePending MilestoneStatus = "pending"
	MilestonePaid    MilestoneStatus = "paid"
)

// Milestone is a sub-entity of Record, replaced as a whole list on every mutation.
type Milestone struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Amount  float64         `json:"amount"`
	DueDate string          `json:"dueDate"`
	Status  MilestoneStatus `json:"status"`
}

// Aggregate Root: Record, one persisted risk-analysis attempt.
// The id is stable across retries; status moves draft -> completed|failed and
// a failed record can re-enter draft on resubmission.
type Record struct {
	ID           RecordID        `json:"id"`
	UserID       string          `json:"user_id"`
	IsPublic     bool            `json:"is_public"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ProjectTitle string          `json:"project_title"`
	ClientName   string          `json:"client_name,omitempty"`
	Status       Status          `json:"status"`
	RiskScore    *int            `json:"risk_score,omitempty"`
	RiskLevel    RiskLevel       `json:"risk_level,omitempty"`
	Input        ProjectInput    `json:"input"`
	Result       *RiskAssessment `json:"result,omitempty"`
	Milestones   []Milestone     `json:"milestones,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ClientIntel aggregates prior completed records for one client name.
type ClientIntel struct {
	Name            string            `json:"name"`
	TotalProjects   int               `json:"total_projects"`
	AvgRiskScore    float64           `json:"avg_risk_score"`
	HighRiskCount   int               `json:"high_risk_count"`
	Distribution    map[RiskLevel]int `json:"risk_level_distribution"`
	LastProjectDate time.Time         `json:"last_project_date"`
}
