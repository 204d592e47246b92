// Package session owns the persisted authentication state: the bearer token
// and the cached user profile.
//
// The two are written and removed together. A session with only one of them
// on disk is treated as absent and swept on the next Load.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// Session is the in-memory snapshot of the persisted auth state.
// Token and User are both set or both zero, never partial.
type Session struct {
	Token string
	User  models.User
}

// Established reports whether the session holds credentials.
func (s Session) Established() bool {
	return s.Token != ""
}

// Store persists the session under a directory, one file per field,
// mirroring the token/profile split of the original client storage.
//
// Store implements [oauth2.TokenSource] so the API client can read the
// bearer token without depending on this package's internals.
type Store struct {
	dir string

	mu      sync.RWMutex
	current Session
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore creates a Store rooted at dir. No I/O happens until Load or Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads the persisted session into memory. Called once at startup.
//
// A missing session is not an error: the zero Session is returned. A partial
// session on disk (token without profile or vice versa) is removed and
// reported as absent.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenBytes, tokenErr := os.ReadFile(filepath.Join(s.dir, tokenFile))
	userBytes, userErr := os.ReadFile(filepath.Join(s.dir, userFile))

	if os.IsNotExist(tokenErr) && os.IsNotExist(userErr) {
		s.current = Session{}
		return s.current, nil
	}

	if tokenErr != nil || userErr != nil {
		// One half survived a failed save or got deleted out of band.
		s.removeFiles()
		s.current = Session{}
		if tokenErr != nil && !os.IsNotExist(tokenErr) {
			return s.current, fmt.Errorf("failed to read session token: %w", tokenErr)
		}
		if userErr != nil && !os.IsNotExist(userErr) {
			return s.current, fmt.Errorf("failed to read session profile: %w", userErr)
		}
		return s.current, nil
	}

	token := strings.TrimSpace(string(tokenBytes))
	var user models.User
	if err := json.Unmarshal(userBytes, &user); err != nil || token == "" {
		s.removeFiles()
		s.current = Session{}
		return s.current, nil
	}

	s.current = Session{Token: token, User: user}
	return s.current, nil
}

// Save persists the token and profile together. If either write fails the
// session is treated as not established: memory is cleared, any half-written
// file is removed, and the error is returned.
func (s *Store) Save(token string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrSessionPartial)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.current = Session{}
		return fmt.Errorf("%w: %v", shared.ErrSessionPartial, err)
	}

	userBytes, err := json.Marshal(user)
	if err != nil {
		s.current = Session{}
		return fmt.Errorf("%w: %v", shared.ErrSessionPartial, err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, userFile), userBytes, 0600); err != nil {
		s.removeFiles()
		s.current = Session{}
		return fmt.Errorf("%w: %v", shared.ErrSessionPartial, err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0600); err != nil {
		s.removeFiles()
		s.current = Session{}
		return fmt.Errorf("%w: %v", shared.ErrSessionPartial, err)
	}

	s.current = Session{Token: token, User: user}
	return nil
}

// Clear removes the persisted session and resets the in-memory state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	return s.removeFiles()
}

// Current returns the in-memory session reflecting the latest Load/Save/Clear.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token implements [oauth2.TokenSource]. It returns the current bearer token
// or [shared.ErrNotAuthenticated] when no session is established.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.Token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: s.current.Token, TokenType: "Bearer"}, nil
}

func (s *Store) removeFiles() error {
	var firstErr error
	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
