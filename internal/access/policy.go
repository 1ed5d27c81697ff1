// Package access decides, per request, whether the caller may reach a route.
package access

import (
	"path"
	"strings"
)

// Classification groups routes by who may reach them.
type Classification int

const (
	// Open routes are not gated.
	Open Classification = iota
	// Bypass routes skip identity resolution entirely.
	Bypass
	// Public routes are reachable anonymously.
	Public
	// AdminOnly routes require the admin role.
	AdminOnly
	// MemberOnly routes require the user role.
	MemberOnly
	// API routes require an identity and answer 401 instead of redirecting.
	API
)

func (c Classification) String() string {
	switch c {
	case Bypass:
		return "bypass"
	case Public:
		return "public"
	case AdminOnly:
		return "admin"
	case MemberOnly:
		return "member"
	case API:
		return "api"
	default:
		return "open"
	}
}

// RoutePolicyEntry classifies every path equal to Prefix or below it.
// Exact entries match the prefix only.
type RoutePolicyEntry struct {
	Prefix         string
	Exact          bool
	Classification Classification
}

// Matches reports whether the entry covers the path. Matching is by whole
// segments, so /administrator is not under /admin.
func (e RoutePolicyEntry) Matches(p string) bool {
	if p == e.Prefix {
		return true
	}
	if e.Exact {
		return false
	}
	return strings.HasPrefix(p, strings.TrimSuffix(e.Prefix, "/")+"/")
}

// Route prefixes that appear in redirects.
const (
	LoginPath  = "/login"
	AdminPath  = "/admin"
	MemberPath = "/member"
)

// routePolicy is evaluated top-down; the first matching entry wins.
var routePolicy = []RoutePolicyEntry{
	{Prefix: "/static", Classification: Bypass},
	{Prefix: "/favicon.ico", Classification: Bypass},
	{Prefix: "/robots.txt", Classification: Bypass},
	{Prefix: "/healthz", Classification: Bypass},
	{Prefix: "/metrics", Classification: Bypass},
	{Prefix: "/auth/callback", Classification: Bypass},

	{Prefix: "/", Exact: true, Classification: Public},
	{Prefix: LoginPath, Classification: Public},
	{Prefix: "/register", Classification: Public},
	{Prefix: "/test-auth", Classification: Public},

	{Prefix: AdminPath, Classification: AdminOnly},
	{Prefix: MemberPath, Classification: MemberOnly},

	{Prefix: "/api/auth", Classification: Open},
	{Prefix: "/api", Classification: API},
}

// Policy returns a copy of the route policy table.
func Policy() []RoutePolicyEntry {
	out := make([]RoutePolicyEntry, len(routePolicy))
	copy(out, routePolicy)
	return out
}

// Classify returns the classification of a request path.
func Classify(p string) Classification {
	p = cleanPath(p)
	for _, entry := range routePolicy {
		if entry.Matches(p) {
			return entry.Classification
		}
	}
	return Open
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
