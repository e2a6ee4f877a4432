package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	domain "github.com/bryanwahyu/risklens/internal/domain/accounts"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new user; the unique index on email enforces one account per address.
func (r *AccountRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users (id, email, name, password_hash, credits, avatar_url, created_at)
VALUES (?,?,?,?,?,?,?);
`
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Credits, u.AvatarURL, created,
	)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail returns nil, nil on miss
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id, email, name, password_hash, credits, avatar_url, created_at
FROM users
WHERE email=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// GetByID returns nil, nil on miss
func (r *AccountRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	const q = `
SELECT id, email, name, password_hash, credits, avatar_url, created_at
FROM users
WHERE id=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// AddCredits adds delta to the balance; missing users are a no-op
func (r *AccountRepository) AddCredits(ctx context.Context, id domain.UserID, delta int) error {
	const q = `UPDATE users SET credits = credits + ? WHERE id = ?;`
	_, err := r.db.ExecContext(ctx, q, delta, id)
	return err
}

func (r *AccountRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Credits, &u.AvatarURL, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
