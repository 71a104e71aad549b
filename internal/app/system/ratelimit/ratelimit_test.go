package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/admitportal/internal/testutil"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int, d time.Duration) (*Limiter, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := newLimiter(limit, d, c.now)
	t.Cleanup(l.Close)
	return l, c
}

func TestLimiter_WindowResets(t *testing.T) {
	l, c := newTestLimiter(t, 3, time.Minute)

	for i := range 3 {
		require.True(t, l.Allow("a"), "request %d", i)
	}
	require.False(t, l.Allow("a"))
	require.Equal(t, 0, l.Remaining("a"))
	require.True(t, l.Allow("b"), "keys are independent")
	require.Equal(t, 2, l.Remaining("b"))

	c.advance(20 * time.Second)
	require.Equal(t, 40*time.Second, l.RetryAfter("a"))

	c.advance(40 * time.Second)
	require.True(t, l.Allow("a"))
	require.Equal(t, 2, l.Remaining("a"))
}

func TestLimiter_Sweep(t *testing.T) {
	l, c := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	c.advance(2 * time.Minute)
	l.sweep()
	l.mu.Lock()
	n := len(l.windows)
	l.mu.Unlock()
	require.Zero(t, n)
	require.Zero(t, l.RetryAfter("a"))
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := New(1, time.Millisecond)
	l.Close()
	l.Close()
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ada := testutil.StudentUser()
	ben := testutil.StudentUser()
	send := func(u testutil.TestUser) *httptest.ResponseRecorder {
		req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/applications", nil), u)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send(ada)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send(ada)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send(ada)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.Contains(t, rec.Body.String(), `"rate_limited"`)

	require.Equal(t, http.StatusNoContent, send(ben).Code)
}

func TestMiddleware_NilLimiter(t *testing.T) {
	var l *Limiter
	called := false
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request) *http.Request
		want  string
	}{
		{"forwarded", func(r *http.Request) *http.Request {
			r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			return r
		}, "ip:203.0.113.7"},
		{"real ip", func(r *http.Request) *http.Request {
			r.Header.Set("X-Real-IP", " 198.51.100.2 ")
			return r
		}, "ip:198.51.100.2"},
		{"remote addr", func(r *http.Request) *http.Request { return r }, "ip:192.0.2.1"},
		{"signed in", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.TestUser{ID: "abc", Role: "student"})
		}, "user:abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			require.Equal(t, tt.want, Key(tt.setup(r)))
		})
	}
}
