package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/member-portal/internal/platform/db"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

// Repository provides PostgreSQL backed persistence for member reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMembers returns one page of members, newest first, and the total match count.
func (r *Repository) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, int, error) {
	countQuery, listQuery := listMembersQueries(filter)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery.text, countQuery.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("members: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, listQuery.text, listQuery.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("members: list: %w", err)
	}
	defer rows.Close()

	_, size := shared.NormalizePage(filter.Page, filter.PageSize)
	records := make([]Member, 0, size)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("members: list rows: %w", err)
	}
	return records, total, nil
}

// GetMember fetches one user with its satellite rows.
func (r *Repository) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	row := r.pool.QueryRow(ctx, memberSelect+` WHERE u.id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

// CountMembers counts members in scope.
func (r *Repository) CountMembers(ctx context.Context, communityID uuid.NullUUID) (int, error) {
	return r.count(ctx, countMembersQuery(memberScope(communityID, "")))
}

// CountMembersSince counts members in scope created at or after since.
func (r *Repository) CountMembersSince(ctx context.Context, communityID uuid.NullUUID, since time.Time) (int, error) {
	return r.count(ctx, countMembersQuery(memberScope(communityID, "").add("u.created_at >= %s", since)))
}

// CountActiveMembersSince counts distinct members in scope with activity at or after since.
func (r *Repository) CountActiveMembersSince(ctx context.Context, communityID uuid.NullUUID, since time.Time) (int, error) {
	return r.count(ctx, activeMembersQuery(communityID, since))
}

// AverageBalance returns the mean coin balance in scope; ok is false when no
// member in scope has a balance row.
func (r *Repository) AverageBalance(ctx context.Context, communityID uuid.NullUUID) (avg float64, ok bool, err error) {
	query := averageBalanceQuery(communityID)
	var value *float64
	if err := r.pool.QueryRow(ctx, query.text, query.args...).Scan(&value); err != nil {
		return 0, false, fmt.Errorf("members: average balance: %w", err)
	}
	if value == nil {
		return 0, false, nil
	}
	return *value, true, nil
}

// UpdateProfile writes the name and upserts the profile row in one transaction.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileChanges) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT true FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("members: lock user: %w", err)
		}
		if changes.Name != nil {
			if _, err := tx.Exec(ctx, `UPDATE users SET name = $2, updated_at = now() WHERE id = $1`, id, *changes.Name); err != nil {
				return fmt.Errorf("members: update name: %w", err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO member_profiles (user_id, phone, birthdate, gender, address, bio, avatar_url, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (user_id) DO UPDATE SET
				phone = COALESCE(EXCLUDED.phone, member_profiles.phone),
				birthdate = COALESCE(EXCLUDED.birthdate, member_profiles.birthdate),
				gender = COALESCE(EXCLUDED.gender, member_profiles.gender),
				address = COALESCE(EXCLUDED.address, member_profiles.address),
				bio = COALESCE(EXCLUDED.bio, member_profiles.bio),
				avatar_url = COALESCE(EXCLUDED.avatar_url, member_profiles.avatar_url),
				updated_at = now()`,
			id, changes.Phone, changes.Birthdate, changes.Gender, changes.Address, changes.Bio, changes.AvatarURL)
		if err != nil {
			return fmt.Errorf("members: upsert profile: %w", err)
		}
		return nil
	})
}

func (r *Repository) count(ctx context.Context, query sqlQuery) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query.text, query.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("members: count: %w", err)
	}
	return n, nil
}

func scanMember(row pgx.Row) (Member, error) {
	var (
		m                Member
		role             string
		profileUserID    uuid.NullUUID
		profile          MemberProfile
		profileUpdatedAt *time.Time
		coinUserID       uuid.NullUUID
		balance          *int64
		coinUpdatedAt    *time.Time
	)
	err := row.Scan(
		&m.ID, &m.Email, &m.Name, &role, &m.CommunityID, &m.CreatedAt,
		&profileUserID, &profile.Phone, &profile.Birthdate, &profile.Gender, &profile.Address, &profile.Bio, &profile.AvatarURL, &profileUpdatedAt,
		&coinUserID, &balance, &coinUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, err
		}
		return Member{}, fmt.Errorf("members: scan: %w", err)
	}
	m.Role = users.Role(role)
	if profileUserID.Valid {
		profile.UserID = profileUserID.UUID
		if profileUpdatedAt != nil {
			profile.UpdatedAt = *profileUpdatedAt
		}
		m.Profile = &profile
	}
	if coinUserID.Valid {
		coins := SportCoin{UserID: coinUserID.UUID}
		if balance != nil {
			coins.Balance = *balance
		}
		if coinUpdatedAt != nil {
			coins.UpdatedAt = *coinUpdatedAt
		}
		m.Coins = &coins
	}
	return m, nil
}
