package members

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/clubhub/member-portal/internal/platform/httpx"
	"github.com/clubhub/member-portal/internal/shared"
)

// ActiveWindow is how far back an activity keeps a member active.
const ActiveWindow = 30 * 24 * time.Hour

// RepositoryPort defines data access methods for members.
type RepositoryPort interface {
	ListMembers(ctx context.Context, filter MemberFilter) ([]Member, int, error)
	GetMember(ctx context.Context, id uuid.UUID) (Member, error)
	CountMembers(ctx context.Context, communityID uuid.NullUUID) (int, error)
	CountMembersSince(ctx context.Context, communityID uuid.NullUUID, since time.Time) (int, error)
	CountActiveMembersSince(ctx context.Context, communityID uuid.NullUUID, since time.Time) (int, error)
	AverageBalance(ctx context.Context, communityID uuid.NullUUID) (float64, bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileChanges) error
}

// Service exposes member listings and statistics.
type Service struct {
	repo      RepositoryPort
	logger    *slog.Logger
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// GetMembers returns one page of members. Query failures are logged and
// reported as an empty page, the same shape as a scope with no members.
func (s *Service) GetMembers(ctx context.Context, filter MemberFilter) MemberList {
	filter.Page, filter.PageSize = shared.NormalizePage(filter.Page, filter.PageSize)
	filter.Search = strings.TrimSpace(filter.Search)

	records, total, err := s.repo.ListMembers(ctx, filter)
	if err != nil {
		s.logger.Error("list members", slog.Any("error", err))
		return MemberList{Records: []Member{}}
	}
	if records == nil {
		records = []Member{}
	}
	return MemberList{Records: records, Total: total}
}

// GetMemberStats computes the four aggregates for a scope concurrently. Each
// aggregate falls back to zero on its own failure.
func (s *Service) GetMemberStats(ctx context.Context, communityID uuid.NullUUID) Stats {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	activeSince := now.Add(-ActiveWindow)

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountMembers(gctx, communityID)
		stats.TotalMembers = s.orZero("total members", n, err)
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountMembersSince(gctx, communityID, monthStart)
		stats.NewMembers = s.orZero("new members", n, err)
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountActiveMembersSince(gctx, communityID, activeSince)
		stats.ActiveMembers = s.orZero("active members", n, err)
		return nil
	})
	g.Go(func() error {
		avg, ok, err := s.repo.AverageBalance(gctx, communityID)
		if err != nil {
			s.logger.Error("member stats: average balance", slog.Any("error", err))
			return nil
		}
		if ok {
			stats.AvgBalance = int64(math.Round(avg))
		}
		return nil
	})

	_ = g.Wait()
	return stats
}

func (s *Service) orZero(name string, n int, err error) int {
	if err != nil {
		s.logger.Error("member stats: "+name, slog.Any("error", err))
		return 0
	}
	return n
}

// GetMember returns a single member record.
func (s *Service) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	return s.repo.GetMember(ctx, id)
}

// UpdateProfile validates and sanitizes a profile change, stores it and
// returns the refreshed member.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (Member, error) {
	if err := s.validator.Struct(update); err != nil {
		return Member{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	changes := ProfileChanges{
		Name:      s.clean(update.Name),
		Phone:     s.clean(update.Phone),
		Gender:    update.Gender,
		Address:   s.clean(update.Address),
		Bio:       s.clean(update.Bio),
		AvatarURL: update.AvatarURL,
	}
	if changes.Name != nil && *changes.Name == "" {
		return Member{}, fmt.Errorf("%w: name must not be empty", httpx.ErrValidation)
	}
	if update.Birthdate != nil && *update.Birthdate != "" {
		born, err := time.Parse(time.DateOnly, *update.Birthdate)
		if err != nil {
			return Member{}, fmt.Errorf("%w: birthdate", httpx.ErrValidation)
		}
		changes.Birthdate = &born
	}
	if err := s.repo.UpdateProfile(ctx, id, changes); err != nil {
		return Member{}, err
	}
	return s.repo.GetMember(ctx, id)
}

func (s *Service) clean(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(s.sanitizer.Sanitize(*v))
	return &out
}
