package chatclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
)

// sessionFile is the single key under which the signed-in user is kept,
// the local-storage analog of the web client.
const sessionFile = "ease_user_session.json"

// Session binds a user to this device until sign-out or storage clear
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	CreatedAt time.Time    `json:"created_at"`
}

// SessionStore persists the session record as a JSON file
type SessionStore struct {
	path string
}

// NewSessionStore creates a store rooted at dir, defaulting to the user
// config directory when dir is empty.
func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(configDir, "buddychat")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &SessionStore{path: filepath.Join(dir, sessionFile)}, nil
}

// Load returns the stored session, or nil when none exists. An unreadable
// record is treated as absent and removed, like a cleared storage key.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = os.Remove(s.path)
		return nil, nil
	}
	if session.User == nil || session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

// Save writes the session record
func (s *SessionStore) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the session record
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
