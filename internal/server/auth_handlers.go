package server

import (
	"encoding/json"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/metroviz/crimedash/internal/auth"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleLogin verifies credentials and opens a session. Attempts are
// rate-limited per client address; failures answer 401 without
// distinguishing unknown user from wrong password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.throttle.Allow(clientAddr(r)) {
		respondError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	role, ok := s.creds.Verify(req.Username, req.Password)
	if !ok {
		s.log.Warn("login rejected", zap.String("username", req.Username))
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess := s.sessions.Login(req.Username, role)
	s.setSessionCookie(w, sess.Token)
	s.log.Info("login", zap.String("username", req.Username), zap.String("role", string(role)))
	respondJSON(w, http.StatusOK, sess)
}

// handleGuestLogin opens an anonymous general-access session.
func (s *Server) handleGuestLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Guest()
	s.setSessionCookie(w, sess.Token)
	respondJSON(w, http.StatusOK, sess)
}

// handleLogout closes the current session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleSession describes the current session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	respondJSON(w, http.StatusOK, struct {
		*auth.Session
		Privileged bool `json:"privileged"`
	}{Session: sess, Privileged: sess.Privileged()})
}
