package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clubhub/member-portal/internal/shared"
)

// Role is the authorization tier recorded on a user.
type Role string

const (
	// RoleAdmin sees every community and the admin dashboard.
	RoleAdmin Role = "admin"
	// RoleUser is a regular member scoped to their own community.
	RoleUser Role = "user"
)

// ParseRole validates a stored or submitted role value.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", shared.ErrInvalidRole
}

// User represents a registered portal account.
type User struct {
	ID          uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        Role          `json:"role"`
	CommunityID uuid.NullUUID `json:"community_id"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

var emailCaser = cases.Lower(language.Und)

// NormalizeEmail returns the canonical lookup form of an email address.
func NormalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}
