package e2e

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubhub/member-portal/internal/auth"
	"github.com/clubhub/member-portal/internal/communities"
	"github.com/clubhub/member-portal/internal/members"
	"github.com/clubhub/member-portal/internal/shared"
	"github.com/clubhub/member-portal/internal/users"
)

// portalStore is an in-memory stand-in for the Postgres schema, shared by the
// repositories of every module so that writes made through one are visible to
// the others within a single test.
type portalStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*storedUser
	communities []communities.Community
}

type storedUser struct {
	users.User
	hash    string
	balance int64
	profile *members.MemberProfile
}

func newPortalStore() *portalStore {
	return &portalStore{users: make(map[uuid.UUID]*storedUser)}
}

func (s *portalStore) addCommunity(code, name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.communities = append(s.communities, communities.Community{ID: id, Code: code, Name: name, Status: communities.StatusActive})
	return id
}

func (s *portalStore) addUser(email, name, hash string, role users.Role, community uuid.NullUUID, balance int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = &storedUser{
		User:    users.User{ID: id, Email: email, Name: name, Role: role, CommunityID: community, CreatedAt: time.Now()},
		hash:    hash,
		balance: balance,
	}
	return id
}

func (s *portalStore) byEmail(email string) *storedUser {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// authRepo

type authRepo struct{ *portalStore }

func (r authRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return nil, shared.ErrNotFound
	}
	return &auth.Account{ID: u.ID, Email: u.Email, PasswordHash: u.hash, Role: u.Role}, nil
}

func (r authRepo) CreateAccount(ctx context.Context, acct auth.NewAccount) (users.User, error) {
	r.mu.Lock()
	if r.byEmail(acct.Email) != nil {
		r.mu.Unlock()
		return users.User{}, shared.ErrDuplicate
	}
	r.mu.Unlock()
	id := r.addUser(acct.Email, acct.Name, acct.PasswordHash, users.RoleUser, acct.CommunityID, 0)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].profile = &members.MemberProfile{UserID: id}
	return r.users[id].User, nil
}

// usersRepo

type usersRepo struct{ *portalStore }

func (r usersRepo) RoleByEmail(ctx context.Context, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.byEmail(email); u != nil {
		return string(u.Role), nil
	}
	return "", shared.ErrNotFound
}

func (r usersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.byEmail(email); u != nil {
		return u.User, nil
	}
	return users.User{}, shared.ErrNotFound
}

func (r usersRepo) GetByID(ctx context.Context, id uuid.UUID) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u.User, nil
	}
	return users.User{}, shared.ErrNotFound
}

func (r usersRepo) UpdateRole(ctx context.Context, id uuid.UUID, role users.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	return nil
}

// membersRepo

type membersRepo struct{ *portalStore }

func (r membersRepo) scoped(community uuid.NullUUID) []*storedUser {
	var out []*storedUser
	for _, u := range r.users {
		if u.Role != users.RoleUser {
			continue
		}
		if community.Valid && (!u.CommunityID.Valid || u.CommunityID.UUID != community.UUID) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r membersRepo) toMember(u *storedUser) members.Member {
	return members.Member{
		User:    u.User,
		Profile: u.profile,
		Coins:   &members.SportCoin{UserID: u.ID, Balance: u.balance},
	}
}

func (r membersRepo) ListMembers(ctx context.Context, filter members.MemberFilter) ([]members.Member, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term := strings.ToLower(filter.Search)
	var matched []members.Member
	for _, u := range r.scoped(filter.CommunityID) {
		if term != "" && !strings.Contains(strings.ToLower(u.Name), term) && !strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		matched = append(matched, r.toMember(u))
	}
	offset := shared.Offset(filter.Page, filter.PageSize)
	if offset >= len(matched) {
		return nil, len(matched), nil
	}
	return matched[offset:min(offset+filter.PageSize, len(matched))], len(matched), nil
}

func (r membersRepo) GetMember(ctx context.Context, id uuid.UUID) (members.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return members.Member{}, shared.ErrNotFound
	}
	return r.toMember(u), nil
}

func (r membersRepo) CountMembers(ctx context.Context, community uuid.NullUUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scoped(community)), nil
}

func (r membersRepo) CountMembersSince(ctx context.Context, community uuid.NullUUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.scoped(community) {
		if !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r membersRepo) CountActiveMembersSince(ctx context.Context, community uuid.NullUUID, since time.Time) (int, error) {
	return 0, nil
}

func (r membersRepo) AverageBalance(ctx context.Context, community uuid.NullUUID) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scoped := r.scoped(community)
	if len(scoped) == 0 {
		return 0, false, nil
	}
	var total int64
	for _, u := range scoped {
		total += u.balance
	}
	return float64(total) / float64(len(scoped)), true, nil
}

func (r membersRepo) UpdateProfile(ctx context.Context, id uuid.UUID, changes members.ProfileChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if u.profile == nil {
		u.profile = &members.MemberProfile{UserID: id}
	}
	if changes.Bio != nil {
		u.profile.Bio = changes.Bio
	}
	if changes.Phone != nil {
		u.profile.Phone = changes.Phone
	}
	return nil
}

// communityRepo

type communityRepo struct{ *portalStore }

func (r communityRepo) List(ctx context.Context) ([]communities.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]communities.Community(nil), r.communities...), nil
}

func (r communityRepo) GetByCode(ctx context.Context, code string) (communities.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.communities {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return communities.Community{}, shared.ErrNotFound
}
