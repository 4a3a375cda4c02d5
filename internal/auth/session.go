package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated (or guest) dashboard session.
type Session struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Guest     bool      `json:"guest"`
	CreatedAt time.Time `json:"created_at"`
}

// Privileged reports whether this session may access the detailed views.
func (s *Session) Privileged() bool {
	return s != nil && s.Role == RolePrivileged
}

// SessionManager tracks live sessions in memory. Tokens are random
// UUIDs; there is no expiry beyond process lifetime, matching the
// single-process dashboard deployment.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session table.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Login creates a session for a verified user and returns its token.
func (m *SessionManager) Login(username string, role Role) *Session {
	s := &Session{
		Token:     uuid.NewString(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Guest creates an anonymous session. Guests hold the general role, the
// same access a credentialed non-privileged user gets; only the Guest
// flag tells them apart.
func (m *SessionManager) Guest() *Session {
	s := &Session{
		Token:     uuid.NewString(),
		Username:  "guest",
		Role:      RoleGeneral,
		Guest:     true,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Get resolves a token to its live session.
func (m *SessionManager) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	return s, ok
}

// Logout removes the session for the token, if any.
func (m *SessionManager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
