package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubhub/member-portal/internal/communities"
	"github.com/clubhub/member-portal/internal/platform/httpx"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

// CommunityFinder resolves registration community codes.
type CommunityFinder interface {
	GetByCode(ctx context.Context, code string) (communities.Community, error)
}

// RegisterInput is the payload of a member sign-up.
type RegisterInput struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	Name          string `json:"name" validate:"required,max=120"`
	CommunityCode string `json:"community_code" validate:"omitempty,max=32"`
}

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	communities CommunityFinder
	validator   *validator.Validate
	cost        int
}

// NewService constructs a new Service.
func NewService(repo Repository, communities CommunityFinder) *Service {
	return &Service{repo: repo, communities: communities, validator: validator.New(), cost: bcrypt.DefaultCost}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acct, err := s.repo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if acct.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return acct, nil
}

// Register creates a member account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (users.User, error) {
	in.Email = users.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Struct(in); err != nil {
		return users.User{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	var community uuid.NullUUID
	if code := strings.TrimSpace(in.CommunityCode); code != "" {
		if s.communities == nil {
			return users.User{}, fmt.Errorf("%w: community codes are not accepted", httpx.ErrValidation)
		}
		c, err := s.communities.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return users.User{}, fmt.Errorf("%w: unknown community code", httpx.ErrValidation)
			}
			return users.User{}, err
		}
		if c.Status != communities.StatusActive {
			return users.User{}, fmt.Errorf("%w: community is not accepting members", httpx.ErrValidation)
		}
		community = uuid.NullUUID{UUID: c.ID, Valid: true}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return users.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateAccount(ctx, NewAccount{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		CommunityID:  community,
	})
}
