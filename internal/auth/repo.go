package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/member-portal/internal/platform/db"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

const uniqueViolation = "23505"

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	CreateAccount(ctx context.Context, acct NewAccount) (users.User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches credentials by normalized email. Accounts managed by an
// external provider have no password hash and cannot log in here.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var (
		acct Account
		hash *string
		role string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, role FROM users WHERE lower(email) = $1`, email).
		Scan(&acct.ID, &acct.Email, &hash, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	if hash != nil {
		acct.PasswordHash = *hash
	}
	acct.Role = users.Role(role)
	return &acct, nil
}

// CreateAccount inserts the user with an empty profile and a zero coin balance.
func (r *PGRepository) CreateAccount(ctx context.Context, acct NewAccount) (users.User, error) {
	var created users.User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var role string
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, password_hash, role, community_id)
			VALUES ($1, $2, $3, 'user', $4)
			RETURNING id, email, name, role, community_id, created_at`,
			acct.Email, acct.Name, acct.PasswordHash, acct.CommunityID).
			Scan(&created.ID, &created.Email, &created.Name, &role, &created.CommunityID, &created.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return shared.ErrDuplicate
			}
			return fmt.Errorf("auth: insert user: %w", err)
		}
		created.Role = users.Role(role)
		if _, err := tx.Exec(ctx, `INSERT INTO member_profiles (user_id) VALUES ($1)`, created.ID); err != nil {
			return fmt.Errorf("auth: insert profile: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO sport_coins (user_id, balance) VALUES ($1, 0)`, created.ID); err != nil {
			return fmt.Errorf("auth: insert coins: %w", err)
		}
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	return created, nil
}

var _ Repository = (*PGRepository)(nil)
