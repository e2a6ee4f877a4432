package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/bryanwahyu/risklens/internal/application"
	accounts "github.com/bryanwahyu/risklens/internal/domain/accounts"
	ai "github.com/bryanwahyu/risklens/internal/domain/ai"
	domain "github.com/bryanwahyu/risklens/internal/domain/analysis"
)

// Persisted verbatim into the record when the analyzer is absent, so a
// retry after fixing the deployment has context.
const unconfiguredMsg = "AI provider API key is missing on the server."

// Service implements the analysis workflow:
// draft-save -> credit-check -> AI call -> completed-save + credit deduct.
// All collaborators are injected; there is no ambient store.
type Service struct {
	Users    accounts.Repository
	Records  domain.Repository
	Analyzer ai.Analyzer // nil when no provider credential is configured
	Clock    application.Clock

	// SharedClientIntel opts into the cross-user client history view.
	// Off by default: intel is then scoped to the submitting user.
	SharedClientIntel bool
}

// Command untuk menjalankan satu analisis
type AnalyzeCommand struct {
	UserID    string
	ProjectID string // reuse an earlier record id for retry; empty for a fresh one
	Input     domain.ProjectInput
}

type AnalyzeOutcome struct {
	RecordID   string                 `json:"record_id"`
	Status     domain.Status          `json:"status"`
	Assessment *domain.RiskAssessment `json:"assessment,omitempty"`
}

// Analyze runs the whole workflow for one submission. A non-nil error always
// belongs to the taxonomy in the domain packages; the record id in the
// outcome stays valid for retry whenever a draft was written.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeOutcome, error) {
	user, err := s.Users.GetByID(ctx, accounts.UserID(cmd.UserID))
	if err != nil {
		return AnalyzeOutcome{}, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return AnalyzeOutcome{}, accounts.ErrUserNotFound
	}

	// Pre-check only; the authoritative guard is the conditional decrement
	// inside Complete. No side effects when the balance is short.
	if user.Credits < 1 {
		return AnalyzeOutcome{}, accounts.ErrInsufficientCredits
	}

	now := s.Clock.Now()
	id := cmd.ProjectID
	if id == "" {
		id = uuid.New().String()
	} else {
		// A resubmitted id may only target the caller's own record.
		prior, err := s.Records.Get(ctx, domain.RecordID(id))
		if err != nil {
			return AnalyzeOutcome{}, fmt.Errorf("resolve record: %w", err)
		}
		if prior != nil && prior.UserID != cmd.UserID {
			return AnalyzeOutcome{}, domain.ErrNotOwner
		}
	}
	draft := &domain.Record{
		ID:           domain.RecordID(id),
		UserID:       cmd.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		ProjectTitle: cmd.Input.Title,
		ClientName:   cmd.Input.ClientName,
		Status:       domain.StatusDraft,
		Input:        cmd.Input,
	}
	// Best effort: a failed draft save must not abort the flow, the
	// generated id still keeps retries stable.
	if err := s.Records.Save(ctx, draft); err != nil {
		log.Printf("save draft %s: %v", id, err)
	}

	if s.Analyzer == nil {
		s.markFailed(ctx, draft, unconfiguredMsg)
		return AnalyzeOutcome{RecordID: id, Status: domain.StatusFailed}, ai.ErrUnconfigured
	}

	assessment, err := s.Analyzer.Analyze(ctx, cmd.Input, s.clientIntel(ctx, cmd))
	if err != nil {
		s.markFailed(ctx, draft, err.Error())
		return AnalyzeOutcome{RecordID: id, Status: domain.StatusFailed}, err
	}

	score := assessment.RiskScore
	completed := *draft
	completed.Status = domain.StatusCompleted
	completed.RiskScore = &score
	completed.RiskLevel = assessment.RiskLevel
	completed.Result = assessment
	completed.UpdatedAt = s.Clock.Now()
	completed.Error = ""

	// One commit: record save and credit deduct succeed or fail together.
	if err := s.Records.Complete(ctx, &completed, cmd.UserID); err != nil {
		if errors.Is(err, accounts.ErrInsufficientCredits) {
			// Lost the race against a concurrent analysis; the draft is intact.
			return AnalyzeOutcome{RecordID: id, Status: domain.StatusDraft}, accounts.ErrInsufficientCredits
		}
		log.Printf("complete analysis %s: %v", id, err)
		return AnalyzeOutcome{RecordID: id, Status: domain.StatusDraft, Assessment: assessment},
			fmt.Errorf("%w: %v", domain.ErrPartialPersistence, err)
	}

	return AnalyzeOutcome{RecordID: id, Status: domain.StatusCompleted, Assessment: assessment}, nil
}

// clientIntel looks up prior completed records for the submitted client name.
// Failures only cost the directive, never the analysis.
func (s *Service) clientIntel(ctx context.Context, cmd AnalyzeCommand) *domain.ClientIntel {
	name := cmd.Input.ClientName
	if name == "" {
		return nil
	}
	scope := cmd.UserID
	if s.SharedClientIntel {
		scope = ""
	}
	history, err := s.Records.ClientHistory(ctx, name, scope)
	if err != nil {
		log.Printf("client history for %q: %v", name, err)
		return nil
	}
	return domain.BuildClientIntel(name, history)
}

func (s *Service) markFailed(ctx context.Context, rec *domain.Record, msg string) {
	failed := *rec
	failed.Status = domain.StatusFailed
	failed.Error = msg
	failed.UpdatedAt = s.Clock.Now()
	if err := s.Records.Save(ctx, &failed); err != nil {
		// Double failure is logged, not propagated.
		log.Printf("mark record %s failed: %v", rec.ID, err)
	}
}
