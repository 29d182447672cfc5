package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gitlearn/backend/models"
)

// Session is the signed-in identity of the trainer. It is created once at
// startup, loaded from disk and passed to whatever needs the token.
type Session struct {
	path string

	mu    sync.RWMutex
	token string
	user  *models.PublicUser
}

type sessionFile struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user,omitempty"`
}

// NewSession returns an empty session persisted at path. An empty path keeps
// the session in memory only.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// DefaultSessionPath is ~/.gitlearn/session.json.
func DefaultSessionPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, ".gitlearn", "session.json")
}

// Load restores the session from disk. A missing file leaves it signed out.
func (s *Session) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = f.Token
	s.user = f.User
	return nil
}

// Save stores the token and user and writes them to disk.
func (s *Session) Save(token string, user models.PublicUser) error {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(sessionFile{Token: token, User: &user}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear signs out and removes the file.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (models.PublicUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.PublicUser{}, false
	}
	return *s.user, true
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
