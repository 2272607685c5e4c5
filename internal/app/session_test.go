package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestStore(ttl time.Duration) *SessionStore {
	return NewSessionStore(func() *GuidanceForm {
		return NewGuidanceForm(newBlockingRepo(), LastCompletedWins, nil)
	}, ttl)
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSessionStoreReusesFormForCookie(t *testing.T) {
	store := newTestStore(time.Hour)

	w := httptest.NewRecorder()
	first := store.Form(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookieFrom(t, w)
	assert.True(t, cookie.HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	second := store.Form(w, r)

	assert.Same(t, first, second)
	assert.Empty(t, w.Result().Cookies(), "known session must not be reissued")
	assert.Equal(t, 1, store.Len())
}

func TestSessionStoreIsolatesSessions(t *testing.T) {
	store := newTestStore(time.Hour)

	a := store.Form(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	b := store.Form(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, a.Edit(FieldRole, "Data Analyst"))
	assert.NotSame(t, a, b)
	assert.Empty(t, b.Input().Role)
	assert.Equal(t, 2, store.Len())
}

func TestSessionStoreRejectsForgedCookie(t *testing.T) {
	store := newTestStore(time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-uuid"})
	w := httptest.NewRecorder()
	store.Form(w, r)

	c := sessionCookieFrom(t, w)
	assert.NotEqual(t, "not-a-uuid", c.Value)
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	store := newTestStore(10 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	w := httptest.NewRecorder()
	store.Form(w, httptest.NewRequest(http.MethodGet, "/", nil))
	stale := sessionCookieFrom(t, w)

	now = now.Add(8 * time.Minute)
	store.Form(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, store.evict())
	assert.Equal(t, 1, store.Len())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(stale)
	w = httptest.NewRecorder()
	store.Form(w, r)
	assert.NotEqual(t, stale.Value, sessionCookieFrom(t, w).Value)
}

func TestSessionStoreRunStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newTestStore(time.Nanosecond)
	store.Form(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	<-done

	// The janitor can be started again on the same store.
	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	store.Run(ctx, time.Millisecond)
}
