// Package identity resolves the authenticated caller from request cookies.
package identity

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoIdentity reports that the request carries no usable credentials.
var ErrNoIdentity = errors.New("identity: no identity")

// Identity is the authenticated subject of a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Resolution is the outcome of resolving a request's cookies.
//
// Cookies must be written to the response regardless of the decision taken for
// the request, so that sliding sessions keep being renewed on redirects too.
// A non-nil Identity alongside a non-nil error means the caller was identified
// but some secondary step (such as renewing the session) failed.
type Resolution struct {
	Identity *Identity
	Cookies  []*http.Cookie
}

// Anonymous reports whether no identity was resolved.
func (r Resolution) Anonymous() bool {
	return r.Identity == nil
}

// Resolver extracts the caller identity from the inbound cookie set.
type Resolver interface {
	Resolve(ctx context.Context, cookies []*http.Cookie) (Resolution, error)
}

// Chain tries each resolver in order and returns the first identity found.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, cookies []*http.Cookie) (Resolution, error) {
	var (
		out  Resolution
		errs []error
	)
	for _, r := range c {
		if r == nil {
			continue
		}
		res, err := r.Resolve(ctx, cookies)
		out.Cookies = append(out.Cookies, res.Cookies...)
		if err != nil && !errors.Is(err, ErrNoIdentity) {
			errs = append(errs, err)
		}
		if res.Identity != nil {
			out.Identity = res.Identity
			return out, errors.Join(errs...)
		}
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, ErrNoIdentity
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c != nil && c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the identity from context, nil when anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
