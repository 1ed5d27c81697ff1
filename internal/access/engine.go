package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/users"
)

// Outcome is what the engine wants done with a request.
type Outcome int

const (
	// Continue serves the request as asked.
	Continue Outcome = iota
	// Redirect sends the caller to Decision.Location.
	Redirect
	// Unauthorized answers 401 with a JSON error body.
	Unauthorized
)

func (o Outcome) String() string {
	switch o {
	case Redirect:
		return "redirect"
	case Unauthorized:
		return "unauthorized"
	default:
		return "continue"
	}
}

// Decision is the engine verdict for one request.
type Decision struct {
	Outcome  Outcome
	Location string
}

func continueDecision() Decision { return Decision{Outcome: Continue} }

func redirectTo(location string) Decision {
	return Decision{Outcome: Redirect, Location: location}
}

// RoleClassifier maps an identity email to its role.
type RoleClassifier interface {
	RoleForEmail(ctx context.Context, email string) (users.Role, error)
}

// Engine combines identity resolution, role lookup and the route policy.
type Engine struct {
	resolver identity.Resolver
	roles    RoleClassifier
	logger   *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(resolver identity.Resolver, roles RoleClassifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{resolver: resolver, roles: roles, logger: logger}
}

// Decide evaluates the rules for a request path and its cookies. The returned
// resolution carries cookies that must be set on the response whatever the
// outcome.
func (e *Engine) Decide(ctx context.Context, requestPath string, cookies []*http.Cookie) (Decision, identity.Resolution) {
	class := Classify(requestPath)
	if class == Bypass {
		return continueDecision(), identity.Resolution{}
	}

	res := e.resolve(ctx, requestPath, cookies)
	who := res.Identity

	switch class {
	case Public:
		if who == nil || cleanPath(requestPath) != LoginPath {
			return continueDecision(), res
		}
		role, err := e.roles.RoleForEmail(ctx, who.Email)
		if err != nil {
			e.logger.Warn("role lookup on login page", slog.String("path", requestPath), slog.Any("error", err))
			return continueDecision(), res
		}
		return redirectTo(homeFor(role)), res

	case AdminOnly, MemberOnly:
		if who == nil {
			return redirectTo(loginRedirect(requestPath)), res
		}
		role, err := e.roles.RoleForEmail(ctx, who.Email)
		if err != nil {
			e.logger.Warn("role lookup failed", slog.String("path", requestPath), slog.Any("error", err))
			return redirectTo(LoginPath), res
		}
		if class == AdminOnly && role != users.RoleAdmin {
			return redirectTo(homeFor(role)), res
		}
		if class == MemberOnly && role != users.RoleUser {
			return redirectTo(homeFor(role)), res
		}
		return continueDecision(), res

	case API:
		if who == nil {
			return Decision{Outcome: Unauthorized}, res
		}
		return continueDecision(), res
	}
	return continueDecision(), res
}

func (e *Engine) resolve(ctx context.Context, requestPath string, cookies []*http.Cookie) identity.Resolution {
	if e.resolver == nil {
		return identity.Resolution{}
	}
	res, err := e.resolver.Resolve(ctx, cookies)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrNoIdentity):
		e.logger.Debug("anonymous request", slog.String("path", requestPath))
	default:
		e.logger.Warn("resolve identity", slog.String("path", requestPath), slog.Any("error", err))
	}
	return res
}

// homeFor returns the landing area of a role; unknown roles go to login.
func homeFor(role users.Role) string {
	switch role {
	case users.RoleAdmin:
		return AdminPath
	case users.RoleUser:
		return MemberPath
	}
	return LoginPath
}

func loginRedirect(original string) string {
	// '/' is legal inside a query value and keeps the target readable.
	escaped := strings.ReplaceAll(url.QueryEscape(original), "%2F", "/")
	return LoginPath + "?redirect=" + escaped
}
