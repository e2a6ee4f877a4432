package accounts

import (
	"time"
)

// ID tipe untuk User
type UserID string

// Aggregate Root: User
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Credits      int       `json:"credits"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreditPack enum
type CreditPack string

const (
	PackBasic  CreditPack = "basic"
	PackPro    CreditPack = "pro"
	PackAgency CreditPack = "agency"
)

// Grant returns the number of credits a pack adds, or 0 for an unknown pack.
func (p CreditPack) Grant() int {
	switch p {
	case PackBasic:
		return 1
	case PackPro:
		return 5
	case PackAgency:
		return 25
	default:
		return 0
	}
}
