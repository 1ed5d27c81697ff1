package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhub/member-portal/internal/users"
)

// MemberProfile holds optional personal details of a member.
type MemberProfile struct {
	UserID    uuid.UUID  `json:"user_id"`
	Phone     *string    `json:"phone,omitempty"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SportCoin is the coin balance of a member.
type SportCoin struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is a user joined with its satellite records. Profile and Coins are
// nil when the member has no such row.
type Member struct {
	users.User
	Profile *MemberProfile `json:"profile"`
	Coins   *SportCoin     `json:"coins"`
}

// MemberFilter narrows member listings.
type MemberFilter struct {
	CommunityID uuid.NullUUID
	Search      string
	Page        int
	PageSize    int
}

// MemberList is one page of members plus the full match count.
type MemberList struct {
	Records []Member `json:"records"`
	Total   int      `json:"total"`
}

// Stats aggregates member figures for one scope.
type Stats struct {
	TotalMembers  int   `json:"total_members"`
	NewMembers    int   `json:"new_members"`
	ActiveMembers int   `json:"active_members"`
	AvgBalance    int64 `json:"avg_balance"`
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Birthdate *string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Bio       *string `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

// ProfileChanges is a sanitized ProfileUpdate ready for storage.
type ProfileChanges struct {
	Name      *string
	Phone     *string
	Birthdate *time.Time
	Gender    *string
	Address   *string
	Bio       *string
	AvatarURL *string
}
