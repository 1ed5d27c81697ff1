package identity_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhub/member-portal/internal/identity"
	_ "github.com/clubhub/member-portal/testing"
)

func newSessionManager(t *testing.T) (*identity.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return identity.NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func TestSessionResolveRoundTrip(t *testing.T) {
	sm, _ := newSessionManager(t)
	ctx := context.Background()

	sess, cookie, err := sm.Create(ctx, identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.NoError(t, err)
	require.Equal(t, sess.ID, cookie.Value)

	res, err := sm.Resolve(ctx, []*http.Cookie{cookie})
	require.NoError(t, err)
	require.NotNil(t, res.Identity)
	assert.Equal(t, "u-1", res.Identity.ID)
	assert.Equal(t, "ana@club.test", res.Identity.Email)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "test_session", res.Cookies[0].Name)
	assert.Equal(t, sess.ID, res.Cookies[0].Value)
}

func TestSessionResolveRenewsTTL(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	_, cookie, err := sm.Create(ctx, identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)
	_, err = sm.Resolve(ctx, []*http.Cookie{cookie})
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)
	res, err := sm.Resolve(ctx, []*http.Cookie{cookie})
	require.NoError(t, err)
	assert.False(t, res.Anonymous())
}

func TestSessionResolveMissingCookie(t *testing.T) {
	sm, _ := newSessionManager(t)

	res, err := sm.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	assert.True(t, res.Anonymous())
	assert.Empty(t, res.Cookies)
}

func TestSessionResolveStaleCookieIsCleared(t *testing.T) {
	sm, _ := newSessionManager(t)

	stale := &http.Cookie{Name: sm.CookieName(), Value: "gone"}
	res, err := sm.Resolve(context.Background(), []*http.Cookie{stale})
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	assert.True(t, res.Anonymous())
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, -1, res.Cookies[0].MaxAge)
}

func TestSessionResolveStoreDown(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	_, cookie, err := sm.Create(ctx, identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.NoError(t, err)
	mr.Close()

	res, err := sm.Resolve(ctx, []*http.Cookie{cookie})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, identity.ErrNoIdentity)
	assert.True(t, res.Anonymous())
}

func TestSessionDestroy(t *testing.T) {
	sm, _ := newSessionManager(t)
	ctx := context.Background()

	sess, cookie, err := sm.Create(ctx, identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.NoError(t, err)

	expired, err := sm.Destroy(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, expired.MaxAge)

	_, err = sm.Lookup(ctx, []*http.Cookie{cookie})
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
}

type brokenEntropy struct{}

func (brokenEntropy) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestSessionCreateFailsWithoutEntropy(t *testing.T) {
	sm, mr := newSessionManager(t)
	uuid.SetRand(brokenEntropy{})
	t.Cleanup(func() { uuid.SetRand(nil) })

	sess, cookie, err := sm.Create(context.Background(), identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate session id")
	assert.Nil(t, sess)
	assert.Nil(t, cookie)
	assert.Empty(t, mr.Keys())
}

func TestSessionStoreKeyHidesCookieValue(t *testing.T) {
	sm, mr := newSessionManager(t)

	sess, _, err := sm.Create(context.Background(), identity.Identity{ID: "u-1", Email: "ana@club.test"})
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "session:"))
	assert.NotContains(t, keys[0], sess.ID)
}
