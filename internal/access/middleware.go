package access

import (
	"net/http"
	"strings"

	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/platform/httpx"
)

// DecisionObserver records engine outcomes.
type DecisionObserver interface {
	ObserveDecision(class, outcome string)
}

// Middleware adapts the engine to net/http.
type Middleware struct {
	Engine   *Engine
	Observer DecisionObserver
}

// Handler gates next behind the engine. The router dispatches on the raw
// path without cleaning it, so only canonical paths reach the engine: encoded
// separators are rejected and dot segments or repeated slashes are redirected
// to their cleaned form.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasEncodedSeparator(r.URL.EscapedPath()) {
			httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "Bad Request"})
			return
		}
		if clean := cleanPath(r.URL.Path); clean != r.URL.Path {
			target := clean
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		decision, res := m.Engine.Decide(r.Context(), r.URL.Path, r.Cookies())

		// Renewed session cookies go out on every response, redirects included.
		for _, c := range res.Cookies {
			http.SetCookie(w, c)
		}
		if m.Observer != nil {
			m.Observer.ObserveDecision(Classify(r.URL.Path).String(), decision.Outcome.String())
		}

		switch decision.Outcome {
		case Redirect:
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		case Unauthorized:
			httpx.JSON(w, http.StatusUnauthorized, httpx.ErrorBody{Error: "Unauthorized"})
		default:
			ctx := r.Context()
			if res.Identity != nil {
				ctx = identity.ContextWithIdentity(ctx, res.Identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// hasEncodedSeparator reports percent-encoded slashes, backslashes or dots.
func hasEncodedSeparator(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c") || strings.Contains(lower, "%2e")
}
