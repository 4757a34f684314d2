// Package session owns the client's credential state: the bearer token and
// the denormalized user profile attached at login/signup time. Both are set
// and cleared together; readers see both or neither. The state survives
// process restarts through a small JSON file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/securevault/securevault/internal/filex"
)

// User is the profile the API attaches to signup/login responses.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type persisted struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Store holds the current session. It is safe for concurrent use; upload
// goroutines read the token while the auth flow writes it.
type Store struct {
	mu    sync.Mutex
	path  string
	token string
	user  *User
}

// NewStore loads any previously persisted session from path. A missing or
// unreadable file simply means no session; a corrupt file is discarded.
func NewStore(path string) (*Store, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	s := &Store{path: abs}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("session store: read %s: %w", abs, err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		// Corrupt or tokenless state is worthless; start logged out.
		return s, nil
	}
	s.token = p.Token
	s.user = p.User
	return s, nil
}

// Set stores the token and user atomically and persists them. After Set
// returns, a store reloaded from the same file sees both values.
func (s *Store) Set(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(persisted{Token: token, User: user}); err != nil {
		return err
	}
	s.token = token
	s.user = cloneUser(user)
	return nil
}

// Clear removes the token and user together. It is idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session store: remove %s: %w", s.path, err)
	}
	return nil
}

// Token returns the current bearer token, or "" when logged out. A stored
// JWT whose exp claim has passed is reported as absent: the server would
// reject it anyway, so callers should treat the session as gone.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return ""
	}
	if tokenExpired(s.token) {
		return ""
	}
	return s.token
}

// User returns a copy of the current profile, or nil when logged out.
// The profile is only meaningful while a token is held.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || tokenExpired(s.token) {
		return nil
	}
	return cloneUser(s.user)
}

// Authenticated reports whether a usable token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// write persists the state via a temp file and rename, so a crash mid-write
// never leaves a half-written session on disk.
func (s *Store) write(p persisted) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session store: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session store: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session store: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session store: rename: %w", err)
	}
	return nil
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
