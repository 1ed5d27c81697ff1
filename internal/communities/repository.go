package communities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/member-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all communities ordered by name with their live member count.
func (r *Repository) List(ctx context.Context) ([]Community, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.code, c.manager_id, c.status, c.created_at,
		       (SELECT COUNT(*) FROM users u WHERE u.community_id = c.id AND u.role = 'user')
		FROM communities c
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("communities: list: %w", err)
	}
	defer rows.Close()

	var out []Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.ManagerID, &c.Status, &c.CreatedAt, &c.MemberCount); err != nil {
			return nil, fmt.Errorf("communities: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByCode fetches a community by its join code, case-insensitively.
func (r *Repository) GetByCode(ctx context.Context, code string) (Community, error) {
	var c Community
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, code, manager_id, status, created_at
		FROM communities
		WHERE upper(code) = $1`, strings.ToUpper(strings.TrimSpace(code))).
		Scan(&c.ID, &c.Name, &c.Code, &c.ManagerID, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Community{}, shared.ErrNotFound
		}
		return Community{}, fmt.Errorf("communities: get by code: %w", err)
	}
	return c, nil
}
