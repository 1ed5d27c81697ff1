package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of access tokens minted by the auth provider.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenResolver reads an HS256 access token from a cookie.
type TokenResolver struct {
	cookieName string
	secret     []byte
}

// NewTokenResolver returns a resolver for provider-issued access tokens.
func NewTokenResolver(cookieName, secret string) *TokenResolver {
	return &TokenResolver{cookieName: cookieName, secret: []byte(secret)}
}

// Resolve implements Resolver.
func (r *TokenResolver) Resolve(ctx context.Context, cookies []*http.Cookie) (Resolution, error) {
	cookie := findCookie(cookies, r.cookieName)
	if cookie == nil {
		return Resolution{}, ErrNoIdentity
	}
	claims, err := r.parse(cookie.Value)
	if err != nil {
		return Resolution{}, fmt.Errorf("identity: access token: %w", err)
	}
	return Resolution{Identity: &Identity{ID: claims.Subject, Email: claims.Email}}, nil
}

func (r *TokenResolver) parse(raw string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("subject and email claims required")
	}
	return claims, nil
}

var _ Resolver = (*TokenResolver)(nil)
