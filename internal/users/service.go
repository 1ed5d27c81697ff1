package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RoleForEmail classifies the account behind an email. The role is read on
// every call so that role changes apply to the very next request.
func (s *Service) RoleForEmail(ctx context.Context, email string) (Role, error) {
	raw, err := s.repo.RoleByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	role, err := ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("users: role %q: %w", raw, err)
	}
	return role, nil
}

// GetByEmail returns the user record for an email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// ChangeRole assigns a new role after validating it.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, raw string) (User, error) {
	role, err := ParseRole(raw)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, id)
}
