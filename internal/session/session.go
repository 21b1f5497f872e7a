package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"sciencegpt/internal/model"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 24 * time.Hour

// Session holds all per-student state. Nothing here is persisted; when
// the session expires the chat history and progress log go with it.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	Settings     model.Settings
	Messages     []model.ChatMessage
	Events       []model.ProgressEvent
	Gamification model.GamificationState

	ChallengeDone bool
	ChallengeDay  string
	LastLoginDay  string

	mu sync.Mutex
}

// Lock locks the session for exclusive access to its mutable state.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendMessage adds a chat message. Callers must hold the session lock.
func (s *Session) AppendMessage(role model.Role, content string, at time.Time) {
	s.Messages = append(s.Messages, model.ChatMessage{Role: role, Content: content, At: at})
}

// AppendEvent adds a progress event. Callers must hold the session lock.
func (s *Session) AppendEvent(ev model.ProgressEvent) {
	s.Events = append(s.Events, ev)
}

// ClearChat drops the chat history but keeps the progress log and
// gamification state. Callers must hold the session lock.
func (s *Session) ClearChat() {
	s.Messages = nil
}

// Manager is an in-memory session registry keyed by random tokens.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	defaults model.Settings
	now      func() time.Time
}

// NewManager creates a session manager. New sessions start with the
// given default settings.
func NewManager(ttl time.Duration, defaults model.Settings) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		defaults: defaults,
		now:      time.Now,
	}
}

// Create makes a new session with a fresh random token.
func (m *Manager) Create() (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	sess := &Session{
		ID:        token,
		CreatedAt: now,
		LastSeen:  now,
		Settings:  m.defaults,
	}
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session for the token and refreshes its idle timer,
// or nil if the token is unknown or the session has expired.
func (m *Manager) Get(token string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	// LastSeen is read and refreshed under the session lock so the
	// expiry check never races a concurrent refresh or sweep.
	now := m.now()
	sess.Lock()
	expired := now.Sub(sess.LastSeen) > m.ttl
	if !expired {
		sess.LastSeen = now
	}
	sess.Unlock()
	if expired {
		m.Delete(token)
		return nil
	}
	return sess
}

// Delete removes a session.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Len reports the number of live sessions, expired ones included until
// the next cleanup.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes all sessions past their idle TTL and reports
// how many were dropped.
func (m *Manager) CleanupExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for token, sess := range m.sessions {
		sess.Lock()
		expired := now.Sub(sess.LastSeen) > m.ttl
		sess.Unlock()
		if expired {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// StartCleanup launches a background goroutine that sweeps expired
// sessions at the given interval for the life of the process.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m.CleanupExpired()
		}
	}()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
