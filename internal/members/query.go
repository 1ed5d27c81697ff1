package members

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubhub/member-portal/internal/shared"
)

const memberSelect = `
	SELECT u.id, u.email, u.name, u.role, u.community_id, u.created_at,
	       p.user_id, p.phone, p.birthdate, p.gender, p.address, p.bio, p.avatar_url, p.updated_at,
	       c.user_id, c.balance, c.updated_at
	FROM users u
	LEFT JOIN member_profiles p ON p.user_id = u.id
	LEFT JOIN sport_coins c ON c.user_id = u.id`

// sqlQuery is statement text with its positional arguments.
type sqlQuery struct {
	text string
	args []any
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s as a plain substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whereBuilder accumulates SQL conditions with positional arguments.
type whereBuilder struct {
	conditions []string
	args       []any
}

// memberScope starts the conditions shared by every member query: role
// user, optional community, optional name-or-email search.
func memberScope(communityID uuid.NullUUID, search string) *whereBuilder {
	b := &whereBuilder{}
	b.add("u.role = %s", "user")
	if communityID.Valid {
		b.add("u.community_id = %s", communityID.UUID)
	}
	if search = strings.TrimSpace(search); search != "" {
		pattern := containsPattern(search)
		placeholder := b.next()
		b.conditions = append(b.conditions, fmt.Sprintf("(u.name ILIKE %s OR u.email ILIKE %s)", placeholder, placeholder))
		b.args = append(b.args, pattern)
	}
	return b
}

func (b *whereBuilder) next() string {
	return fmt.Sprintf("$%d", len(b.args)+1)
}

// add appends a condition whose single %s is replaced by the next placeholder.
func (b *whereBuilder) add(format string, arg any) *whereBuilder {
	b.conditions = append(b.conditions, fmt.Sprintf(format, b.next()))
	b.args = append(b.args, arg)
	return b
}

func (b *whereBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// listMembersQueries builds the total count and the page select for filter.
// The page select appends LIMIT and OFFSET after the scope arguments.
func listMembersQueries(filter MemberFilter) (count, list sqlQuery) {
	page, size := shared.NormalizePage(filter.Page, filter.PageSize)
	scope := memberScope(filter.CommunityID, filter.Search)
	count = countMembersQuery(scope)

	n := len(scope.args)
	args := make([]any, 0, n+2)
	args = append(args, scope.args...)
	args = append(args, size, shared.Offset(page, size))
	list = sqlQuery{
		text: fmt.Sprintf(`%s
		%s
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $%d OFFSET $%d`, memberSelect, scope.where(), n+1, n+2),
		args: args,
	}
	return count, list
}

func countMembersQuery(scope *whereBuilder) sqlQuery {
	return sqlQuery{text: fmt.Sprintf("SELECT COUNT(*) FROM users u %s", scope.where()), args: scope.args}
}

// activeMembersQuery counts each member once however many activities they logged.
func activeMembersQuery(communityID uuid.NullUUID, since time.Time) sqlQuery {
	scope := memberScope(communityID, "").add("a.occurred_at >= %s", since)
	return sqlQuery{
		text: fmt.Sprintf(`SELECT COUNT(DISTINCT a.user_id)
		FROM member_activities a
		JOIN users u ON u.id = a.user_id
		%s`, scope.where()),
		args: scope.args,
	}
}

// averageBalanceQuery casts the numeric AVG to float8 so it scans into a
// *float64; the result is NULL when no balance row is in scope.
func averageBalanceQuery(communityID uuid.NullUUID) sqlQuery {
	scope := memberScope(communityID, "")
	return sqlQuery{
		text: fmt.Sprintf(`SELECT AVG(c.balance)::float8
		FROM sport_coins c
		JOIN users u ON u.id = c.user_id
		%s`, scope.where()),
		args: scope.args,
	}
}
