package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session is a server-side login session.
type Session struct {
	ID        string
	UserID    string
	Email     string
	CreatedAt time.Time
}

type sessionPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Create starts a session for the identity and returns the cookie to set.
func (sm *SessionManager) Create(ctx context.Context, id Identity) (*Session, *http.Cookie, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, nil, err
	}
	sess := &Session{
		ID:        sessionID,
		UserID:    id.ID,
		Email:     id.Email,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(sessionPayload{UserID: sess.UserID, Email: sess.Email, CreatedAt: sess.CreatedAt})
	if err != nil {
		return nil, nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
		return nil, nil, fmt.Errorf("identity: store session: %w", err)
	}
	return sess, sm.cookie(sess.ID), nil
}

// Lookup loads the session referenced by the cookie set.
func (sm *SessionManager) Lookup(ctx context.Context, cookies []*http.Cookie) (*Session, error) {
	cookie := findCookie(cookies, sm.cookieName)
	if cookie == nil {
		return nil, ErrNoIdentity
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoIdentity
		}
		return nil, fmt.Errorf("identity: load session: %w", err)
	}
	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("identity: decode session: %w", err)
	}
	if stored.UserID == "" || stored.Email == "" {
		return nil, ErrNoIdentity
	}
	return &Session{ID: cookie.Value, UserID: stored.UserID, Email: stored.Email, CreatedAt: stored.CreatedAt}, nil
}

// Touch extends the session lifetime and returns the renewed cookie.
func (sm *SessionManager) Touch(ctx context.Context, sess *Session) (*http.Cookie, error) {
	if sess == nil {
		return nil, ErrNoIdentity
	}
	if err := sm.client.Expire(ctx, sm.redisKey(sess.ID), sm.ttl).Err(); err != nil {
		return nil, fmt.Errorf("identity: renew session: %w", err)
	}
	return sm.cookie(sess.ID), nil
}

// Destroy removes the session and returns a cookie that clears it client side.
func (sm *SessionManager) Destroy(ctx context.Context, id string) (*http.Cookie, error) {
	expired := sm.expiredCookie()
	if id == "" {
		return expired, nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return expired, fmt.Errorf("identity: delete session: %w", err)
	}
	return expired, nil
}

// Resolve implements Resolver on top of the session store. Every resolved
// session is renewed so that the cookie slides forward on each request.
func (sm *SessionManager) Resolve(ctx context.Context, cookies []*http.Cookie) (Resolution, error) {
	sess, err := sm.Lookup(ctx, cookies)
	if err != nil {
		if errors.Is(err, ErrNoIdentity) && findCookie(cookies, sm.cookieName) != nil {
			// Stale cookie, clear it.
			return Resolution{Cookies: []*http.Cookie{sm.expiredCookie()}}, err
		}
		return Resolution{}, err
	}
	res := Resolution{Identity: &Identity{ID: sess.UserID, Email: sess.Email}}
	cookie, err := sm.Touch(ctx, sess)
	if err != nil {
		return res, err
	}
	res.Cookies = append(res.Cookies, cookie)
	return res, nil
}

// SessionID returns the raw session identifier carried by the cookie set.
func (sm *SessionManager) SessionID(cookies []*http.Cookie) string {
	if c := findCookie(cookies, sm.cookieName); c != nil {
		return c.Value
	}
	return ""
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sm.ttl),
		MaxAge:   int(sm.ttl.Seconds()),
	}
}

func (sm *SessionManager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// redisKey stores sessions under a keyed digest so the keyspace never holds
// usable cookie values.
func (sm *SessionManager) redisKey(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return "session:" + hex.EncodeToString(mac.Sum(nil))
}

func generateSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("identity: generate session id: %w", err)
	}
	return id.String(), nil
}

var _ Resolver = (*SessionManager)(nil)
