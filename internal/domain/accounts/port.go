package accounts

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	// Create inserts a new user. Returns ErrEmailTaken when the email
	// already has an account.
	Create(ctx context.Context, u *User) error
	// GetByEmail returns nil, nil when no account matches.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByID returns nil, nil when no account matches.
	GetByID(ctx context.Context, id UserID) (*User, error)
	// AddCredits adds delta to the balance. Missing users are a no-op.
	// Deduction has no standalone operation: consuming a credit only
	// happens inside the analysis repository's Complete transaction.
	AddCredits(ctx context.Context, id UserID, delta int) error
}
