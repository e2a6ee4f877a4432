package ai

import (
	"context"

	"github.com/bryanwahyu/risklens/internal/domain/analysis"
)

// Analyzer port: one structured risk assessment per call. The client
// history intel is optional and biases the scoring when present.
type Analyzer interface {
	Analyze(ctx context.Context, input analysis.ProjectInput, intel *analysis.ClientIntel) (*analysis.RiskAssessment, error)
}
