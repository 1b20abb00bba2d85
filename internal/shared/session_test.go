package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sm := NewSessionManager(client, "areys_session", "secret", 2*time.Hour, 12*time.Hour, false)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }
	return sm, &now
}

func signIn(t *testing.T, sm *SessionManager, userID string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser(userID)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func loadWithCookie(t *testing.T, sm *SessionManager, cookie *http.Cookie) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestLoadWithoutCookieCreatesFreshSession(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, sess.User())
	require.False(t, sess.Expired())
}

func TestSignInRoundTrip(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	sess := loadWithCookie(t, sm, cookie)
	require.Equal(t, "user-1", sess.User())
	require.False(t, sess.Expired())
}

func TestIdleExpiry(t *testing.T) {
	sm, now := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	*now = now.Add(2*time.Hour + time.Minute)

	sess := loadWithCookie(t, sm, cookie)
	require.True(t, sess.Expired())
	require.Empty(t, sess.User())
}

func TestActivityKeepsSessionAliveWithinAbsoluteWindow(t *testing.T) {
	sm, now := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	// A request every hour stays well inside the idle window.
	for i := 0; i < 11; i++ {
		*now = now.Add(time.Hour)
		sess := loadWithCookie(t, sm, cookie)
		require.False(t, sess.Expired(), "hour %d", i+1)
		require.Equal(t, "user-1", sess.User())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	}
}

func TestAbsoluteExpiryOverridesActivity(t *testing.T) {
	sm, now := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	// Keep the session warm past the absolute window.
	for i := 0; i < 13; i++ {
		*now = now.Add(time.Hour)
		sess := loadWithCookie(t, sm, cookie)
		if sess.Expired() {
			require.Greater(t, i+1, 12)
			require.Empty(t, sess.User())
			return
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	}
	t.Fatal("session never hit the absolute expiry")
}

func TestSetUserRestartsAbsoluteWindow(t *testing.T) {
	sm, now := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	// Hourly activity, with a fresh sign-in at hour six. The absolute
	// window restarts there, so hour seventeen is still inside it even
	// though it is past twelve hours from the first sign-in.
	for i := 0; i < 17; i++ {
		*now = now.Add(time.Hour)
		sess := loadWithCookie(t, sm, cookie)
		require.False(t, sess.Expired(), "hour %d", i+1)
		if i+1 == 6 {
			sess.SetUser("user-1")
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	}

	sess := loadWithCookie(t, sm, cookie)
	require.Equal(t, "user-1", sess.User())
}

func TestDestroyEndsSession(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	cookie := signIn(t, sm, "user-1")

	sess := loadWithCookie(t, sm, cookie)
	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)

	sess = loadWithCookie(t, sm, cookie)
	require.Empty(t, sess.User())
}

func TestSessionValues(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	sess.Set("theme", "dark")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookie := rec.Result().Cookies()[0]

	sess = loadWithCookie(t, sm, cookie)
	require.Equal(t, "dark", sess.Get("theme"))
	require.Empty(t, sess.Get("missing"))
}
