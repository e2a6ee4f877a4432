package projects

import (
	"context"

	domain "github.com/bryanwahyu/risklens/internal/domain/analysis"
)

// Service implements read and curation use-cases over analysis records.
// Ownership is enforced here, not in the repository.
type Service struct {
	Records domain.Repository

	// SharedClientIntel mirrors the orchestrator's opt-in: when false,
	// client intel only covers the caller's own records.
	SharedClientIntel bool
}

// History lists the caller's records, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*domain.Record, error) {
	return s.Records.History(ctx, userID)
}

// Get returns one record. Owners always see their records; everyone else
// only sees completed records that were shared publicly.
func (s *Service) Get(ctx context.Context, id domain.RecordID, callerID string) (*domain.Record, error) {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.UserID != callerID && !(rec.IsPublic && rec.Status == domain.StatusCompleted) {
		return nil, domain.ErrNotOwner
	}
	return rec, nil
}

// SetVisibility flips public sharing. Owner only.
func (s *Service) SetVisibility(ctx context.Context, id domain.RecordID, callerID string, public bool) error {
	if err := s.requireOwner(ctx, id, callerID); err != nil {
		return err
	}
	return s.Records.SetVisibility(ctx, id, public)
}

// ReplaceMilestones swaps the whole milestone list. Owner only.
func (s *Service) ReplaceMilestones(ctx context.Context, id domain.RecordID, callerID string, ms []domain.Milestone) error {
	if err := s.requireOwner(ctx, id, callerID); err != nil {
		return err
	}
	return s.Records.ReplaceMilestones(ctx, id, ms)
}

// Community lists completed, public records across all users.
func (s *Service) Community(ctx context.Context) ([]*domain.Record, error) {
	return s.Records.Public(ctx)
}

// ClientIntel aggregates prior completed work for a client name fragment.
// Returns nil when nothing usable exists.
func (s *Service) ClientIntel(ctx context.Context, name string, callerID string) (*domain.ClientIntel, error) {
	scope := callerID
	if s.SharedClientIntel {
		scope = ""
	}
	history, err := s.Records.ClientHistory(ctx, name, scope)
	if err != nil {
		return nil, err
	}
	return domain.BuildClientIntel(name, history), nil
}

func (s *Service) requireOwner(ctx context.Context, id domain.RecordID, callerID string) error {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if rec.UserID != callerID {
		return domain.ErrNotOwner
	}
	return nil
}
