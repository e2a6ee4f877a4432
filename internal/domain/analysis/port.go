package analysis

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	// Save upserts a record by id. On update the creation timestamp,
	// owner, visibility and milestones are preserved; everything else is
	// replaced. Retries therefore keep the same id and created_at.
	Save(ctx context.Context, r *Record) error
	// Get returns nil, nil when no record matches. Ownership is not
	// checked here; callers enforce it.
	Get(ctx context.Context, id RecordID) (*Record, error)
	// History returns a user's records, newest first.
	History(ctx context.Context, userID string) ([]*Record, error)
	// Public returns completed records flagged public, across all users.
	Public(ctx context.Context) ([]*Record, error)
	SetVisibility(ctx context.Context, id RecordID, public bool) error
	// ReplaceMilestones swaps the whole milestone list. No partial patch.
	ReplaceMilestones(ctx context.Context, id RecordID, ms []Milestone) error
	// ClientHistory returns completed records with a known risk level whose
	// client name contains the fragment, case-insensitively. An empty
	// ownerID means the shared cross-user view; otherwise results are
	// scoped to that owner.
	ClientHistory(ctx context.Context, nameFragment string, ownerID string) ([]*Record, error)
	// Complete saves the finished record and deducts one credit from the
	// owner in a single transaction. Returns accounts.ErrInsufficientCredits
	// (wrapped) without persisting when the conditional decrement matches
	// no row; any other failure leaves the record untouched.
	Complete(ctx context.Context, r *Record, userID string) error
}
