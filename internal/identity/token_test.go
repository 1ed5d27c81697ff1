package identity_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhub/member-portal/internal/identity"
)

const tokenSecret = "provider-secret"

func signToken(t *testing.T, secret string, claims identity.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() identity.TokenClaims {
	return identity.TokenClaims{
		Email: "ben@club.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestTokenResolver(t *testing.T) {
	r := identity.NewTokenResolver("access", tokenSecret)
	raw := signToken(t, tokenSecret, validClaims())

	res, err := r.Resolve(context.Background(), []*http.Cookie{{Name: "access", Value: raw}})
	require.NoError(t, err)
	require.NotNil(t, res.Identity)
	assert.Equal(t, identity.Identity{ID: "u-2", Email: "ben@club.test"}, *res.Identity)
}

func TestTokenResolverRejects(t *testing.T) {
	r := identity.NewTokenResolver("access", tokenSecret)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noEmail := validClaims()
	noEmail.Email = ""

	cases := map[string]string{
		"wrong secret": signToken(t, "other", validClaims()),
		"expired":      signToken(t, tokenSecret, expired),
		"no email":     signToken(t, tokenSecret, noEmail),
		"garbage":      "not-a-token",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), []*http.Cookie{{Name: "access", Value: raw}})
			assert.Error(t, err)
			assert.True(t, res.Anonymous())
		})
	}

	_, err := r.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
}

type staticResolver struct {
	res identity.Resolution
	err error
}

func (s staticResolver) Resolve(context.Context, []*http.Cookie) (identity.Resolution, error) {
	return s.res, s.err
}

func TestChainResolve(t *testing.T) {
	renew := &http.Cookie{Name: "s", Value: "1"}
	who := &identity.Identity{ID: "u-3", Email: "cy@club.test"}

	t.Run("first identity wins and cookies accumulate", func(t *testing.T) {
		chain := identity.Chain{
			staticResolver{res: identity.Resolution{Cookies: []*http.Cookie{renew}}, err: identity.ErrNoIdentity},
			staticResolver{res: identity.Resolution{Identity: who}},
		}
		res, err := chain.Resolve(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, who, res.Identity)
		assert.Equal(t, []*http.Cookie{renew}, res.Cookies)
	})

	t.Run("all anonymous", func(t *testing.T) {
		chain := identity.Chain{staticResolver{err: identity.ErrNoIdentity}, nil}
		res, err := chain.Resolve(context.Background(), nil)
		assert.ErrorIs(t, err, identity.ErrNoIdentity)
		assert.True(t, res.Anonymous())
	})

	t.Run("errors surface when nobody resolves", func(t *testing.T) {
		chain := identity.Chain{staticResolver{err: assert.AnError}}
		res, err := chain.Resolve(context.Background(), nil)
		assert.ErrorIs(t, err, assert.AnError)
		assert.True(t, res.Anonymous())
	})
}

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, identity.FromContext(ctx))
	who := &identity.Identity{ID: "u-4", Email: "di@club.test"}
	assert.Equal(t, who, identity.FromContext(identity.ContextWithIdentity(ctx, who)))
}
