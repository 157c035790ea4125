package memory

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

const (
	// DefaultTTL is the sliding expiry window applied to every session.
	DefaultTTL = time.Hour
)

// SessionStore is a mutex-guarded in-memory session table with sliding-window
// expiry. All operations are safe for concurrent use; the lock is held only
// for map work, never across I/O. Absence is always a normal return, never an
// error.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	ttl      time.Duration
}

// NewSessionStore creates a store. A non-positive ttl falls back to
// DefaultTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the live session for id, creating one if the id is
// unseen or its previous session expired. The returned session is touched.
func (s *SessionStore) GetOrCreate(id string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		if session.IsExpired() {
			log.Info().Str("session_id", id).Msg("session expired, creating new session")
			delete(s.sessions, id)
		} else {
			session.Touch(s.ttl)
			return session
		}
	}

	session := s.newSession(id)
	s.sessions[id] = session
	log.Info().Str("session_id", id).Msg("created new session")
	return session
}

// Get returns the live session for id, touching it. An expired session is
// evicted on the way out and reported absent.
func (s *SessionStore) Get(id string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if session.IsExpired() {
		delete(s.sessions, id)
		log.Info().Str("session_id", id).Msg("removed expired session")
		return nil, false
	}
	session.Touch(s.ttl)
	return session, true
}

// AppendMessages extends the session history in insertion order. A missing or
// expired session makes this a no-op; callers create sessions through
// GetOrCreate first.
func (s *SessionStore) AppendMessages(id string, messages []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.IsExpired() {
		return
	}
	session.Messages = append(session.Messages, messages...)
	session.Touch(s.ttl)
}

// Snapshot returns a value copy of the live session, touched, with its own
// message slice. Used by read endpoints so encoding happens outside the lock.
func (s *SessionStore) Snapshot(id string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	if session.IsExpired() {
		delete(s.sessions, id)
		return domain.Session{}, false
	}
	session.Touch(s.ttl)

	snap := *session
	snap.Messages = make([]domain.Message, len(session.Messages))
	copy(snap.Messages, session.Messages)
	return snap, true
}

// History returns a copy of the session's messages in insertion order. The
// copy keeps the store as the only owner of live session state.
func (s *SessionStore) History(id string) ([]domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.IsExpired() {
		return nil, false
	}
	session.Touch(s.ttl)
	history := make([]domain.Message, len(session.Messages))
	copy(history, session.Messages)
	return history, true
}

// Delete removes the session unconditionally and reports whether one existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	log.Info().Str("session_id", id).Msg("deleted session")
	return true
}

// List snapshots all live sessions, evicting expired ones as it goes.
func (s *SessionStore) List() []domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]domain.SessionInfo, 0, len(s.sessions))
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			continue
		}
		infos = append(infos, session.Info())
	}
	return infos
}

// Stats reports store-wide counters. Expired sessions still waiting for the
// sweeper are counted separately but not evicted here.
func (s *SessionStore) Stats() domain.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.SessionStats
	for _, session := range s.sessions {
		if session.IsExpired() {
			stats.ExpiredSessions++
		} else {
			stats.ActiveSessions++
		}
		stats.TotalMessages += len(session.Messages)
	}
	return stats
}

// SweepExpired removes every expired session and returns how many were
// reaped.
func (s *SessionStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			reaped++
			log.Info().Str("session_id", id).Msg("cleaned up expired session")
		}
	}
	return reaped
}

func (s *SessionStore) newSession(id string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:           id,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(s.ttl),
	}
}
