package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/compare"
)

// Session is the per-visitor dashboard state: the last rendered position
// and the comparison toggle. It lives server-side, keyed by a cookie; the
// URL stays the source of truth for what is on screen.
type Session struct {
	ID string

	mu       sync.Mutex
	view     ViewID
	report   string
	period   string
	compare  compare.State
	lastSeen time.Time
}

// Position returns the last rendered (view, report, period) triple.
func (s *Session) Position() (ViewID, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.report, s.period
}

// SetPosition records a completed navigation. A position change resets the
// comparison state.
func (s *Session) SetPosition(view ViewID, report, period string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != view || s.report != report || s.period != period {
		s.compare.Reset()
	}
	s.view = view
	s.report = report
	s.period = period
}

// WithCompare runs fn with exclusive access to the comparison state.
func (s *Session) WithCompare(fn func(*compare.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.compare)
}

// CompareEvent snapshots the current comparison state for rendering.
func (s *Session) CompareEvent(week string) compare.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compare.Event(week)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// Sessions is an in-memory session registry with TTL eviction.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	byID map[string]*Session
}

// NewSessions constructs the registry.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		ttl:  ttl,
		now:  time.Now,
		byID: make(map[string]*Session),
	}
}

// WithNow overrides the registry clock for testing.
func (s *Sessions) WithNow(fn func() time.Time) *Sessions {
	if fn != nil {
		s.now = fn
	}
	return s
}

// Get returns the session for id, or nil when unknown or expired.
func (s *Sessions) Get(id string) *Session {
	if id == "" {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil
	}
	if sess.expired(now, s.ttl) {
		delete(s.byID, id)
		return nil
	}
	sess.touch(now)
	return sess
}

// Create allocates a fresh session and evicts any expired ones.
func (s *Sessions) Create() *Session {
	now := s.now()
	sess := &Session{ID: uuid.NewString(), lastSeen: now}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, old := range s.byID {
		if old.expired(now, s.ttl) {
			delete(s.byID, id)
		}
	}
	s.byID[sess.ID] = sess
	return sess
}
