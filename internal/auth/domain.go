package auth

import (
	"github.com/google/uuid"

	"github.com/clubhub/member-portal/internal/users"
)

// Account is a user with its login credentials.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         users.Role
}

// NewAccount is the data needed to create a member account.
type NewAccount struct {
	Email        string
	Name         string
	PasswordHash string
	CommunityID  uuid.NullUUID
}
