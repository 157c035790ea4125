package domain

import "time"

// Session is a server-held conversation history keyed by a caller-supplied
// identifier. Expiry is a sliding window: every access pushes ExpiresAt out by
// the store's TTL. Sessions are owned by the store; callers never retain one
// across requests.
type Session struct {
	ID           string    `json:"session_id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Touch refreshes the access time and extends the expiry window.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now().UTC()
	s.LastAccessed = now
	s.ExpiresAt = now.Add(ttl)
}

// IsExpired reports whether the session's sliding window has lapsed.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// Info returns the listing view of the session.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		MessageCount: len(s.Messages),
		ExpiresAt:    s.ExpiresAt,
	}
}

// SessionInfo is the wire representation of a session used by the listing and
// get-by-id endpoints.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	MessageCount int       `json:"message_count"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStats aggregates store-wide counters.
type SessionStats struct {
	ActiveSessions  int `json:"active_sessions"`
	ExpiredSessions int `json:"expired_sessions"`
	TotalMessages   int `json:"total_messages"`
}
