package accounts

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/risklens/internal/application"
	domain "github.com/bryanwahyu/risklens/internal/domain/accounts"
)

// Service implements use-cases untuk User accounts dan credit ledger
type Service struct {
	Repo  domain.Repository
	Clock application.Clock

	// InitialCredits is granted once at registration.
	InitialCredits int
}

// Register creates an account with the starting credit balance.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.UserID(uuid.New().String()),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Credits:      s.InitialCredits,
		AvatarURL:    avatarFor(name),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the account behind a session.
func (s *Service) Profile(ctx context.Context, id domain.UserID) (*domain.User, error) {
	user, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// PurchaseCredits applies one pack tier. Settlement is mocked; the grant
// amounts are fixed per tier.
func (s *Service) PurchaseCredits(ctx context.Context, id domain.UserID, pack domain.CreditPack) (int, error) {
	grant := pack.Grant()
	if grant == 0 {
		return 0, fmt.Errorf("unknown credit pack: %q", pack)
	}
	user, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, domain.ErrUserNotFound
	}
	if err := s.Repo.AddCredits(ctx, id, grant); err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return grant, nil
}

// avatarFor derives a deterministic initials avatar URL.
func avatarFor(name string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(name)
}
