package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "careerprep_session"

type session struct {
	form     *GuidanceForm
	lastSeen time.Time
}

// SessionStore gives every browser session its own GuidanceForm. Sessions live in
// memory only and are dropped after ttl without a request.
type SessionStore struct {
	newForm func() *GuidanceForm
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionStore(newForm func() *GuidanceForm, ttl time.Duration) *SessionStore {
	return &SessionStore{
		newForm:  newForm,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Form returns the form bound to the request's session cookie, starting a new
// session when the cookie is missing, malformed or expired.
func (s *SessionStore) Form(w http.ResponseWriter, r *http.Request) *GuidanceForm {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = s.now()
		return sess.form
	}

	id = uuid.New().String()
	sess := &session{form: s.newForm(), lastSeen: s.now()}
	s.sessions[id] = sess

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sess.form
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evict() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evict()
		case <-ctx.Done():
			return
		}
	}
}
