package accounts

import "errors"

// ErrEmailTaken indicates a registration attempt with an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrUserNotFound indicates a session resolved to a user id that no longer exists.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials indicates a failed email/password check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInsufficientCredits indicates the balance is below the one credit an analysis costs.
var ErrInsufficientCredits = errors.New("insufficient credits")
