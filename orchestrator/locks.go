package orchestrator

import "sync"

// userLock is one session's turn lock plus the number of waiters holding a
// reference to it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// sessionLocks serializes turns per user id. Locks are created on first use
// and dropped again once the last holder releases, so the table stays
// proportional to in-flight turns rather than to known sessions.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]*userLock
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{held: make(map[string]*userLock)}
}

// acquire blocks until the user's turn lock is held and returns the release
// function. Acquisitions for distinct users never contend.
func (s *sessionLocks) acquire(userID string) (release func()) {
	s.mu.Lock()
	l, ok := s.held[userID]
	if !ok {
		l = &userLock{}
		s.held[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.held, userID)
		}
		s.mu.Unlock()
	}
}
