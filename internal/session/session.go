package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"karmatch/internal/shared/logging"
)

// ErrNoSession is returned when an authenticated operation runs signed out.
var ErrNoSession = errors.New("not signed in")

// Token is the opaque bearer credential issued by OTP verification.
type Token string

// Bearer returns the Authorization header value.
func (t Token) Bearer() string {
	return "Bearer " + string(t)
}

// Session holds the current token. It is passed explicitly to the code paths
// that issue authenticated calls instead of living in a global.
type Session struct {
	mu     sync.RWMutex
	token  Token
	store  Store
	logger logging.Logger
}

// New creates a signed-out session backed by store. A nil store keeps the
// token in memory only.
func New(store Store, logger logging.Logger) *Session {
	return &Session{store: store, logger: logging.OrNop(logger)}
}

// Restore loads a previously persisted token, if any.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if token != "" {
		s.logger.Debug("restored session")
	}
	return nil
}

// Token returns the current token and whether one is held.
func (s *Session) Token() (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Require returns the current token or ErrNoSession.
func (s *Session) Require() (Token, error) {
	token, ok := s.Token()
	if !ok {
		return "", ErrNoSession
	}
	return token, nil
}

// SignIn replaces the held token and persists it.
func (s *Session) SignIn(token Token) error {
	token = Token(strings.TrimSpace(string(token)))
	if token == "" {
		return errors.New("sign in: empty token")
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Save(token); err != nil {
			s.logger.Warn("persist session failed: %v", err)
			return fmt.Errorf("persist session: %w", err)
		}
	}
	s.logger.Info("signed in")
	return nil
}

// SignOut destroys the token in memory and on disk.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	s.logger.Info("signed out")
	return nil
}

// Email decodes the email claim of the held token.
func (s *Session) Email() (string, error) {
	token, err := s.Require()
	if err != nil {
		return "", err
	}
	return EmailFromToken(token)
}
