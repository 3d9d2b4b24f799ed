package storage

import (
	"errors"
	"sync"
	"time"

	"jshell/internal/shell"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreFull       = errors.New("session limit reached")
	ErrDuplicateID     = errors.New("session id already in use")
)

// Session is one shell with its own namespace. Commands against it are
// serialised by Do.
type Session struct {
	ID           string
	PasswordHash []byte // nil when no password set
	CreatedAt    time.Time

	mu        sync.Mutex
	shell     *shell.Shell
	expiresAt time.Time
	commands  int
}

// NewSession wraps sh in a session that expires ttl after its last use.
func NewSession(id string, sh *shell.Shell, passwordHash []byte, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:           id,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		shell:        sh,
		expiresAt:    now.Add(ttl),
	}
}

// Do runs fn with exclusive access to the shell and slides the expiry.
func (s *Session) Do(now time.Time, ttl time.Duration, fn func(sh *shell.Shell)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.shell)
	s.commands++
	s.expiresAt = now.Add(ttl)
}

// View runs fn with exclusive access to the shell without counting a
// command or touching the expiry.
func (s *Session) View(fn func(sh *shell.Shell)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.shell)
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

// Commands returns how many commands ran in this session.
func (s *Session) Commands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}

// Store defines the interface for session storage backends.
type Store interface {
	Save(s *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
	Expired(now time.Time) []*Session
	Len() int
}

// MemoryStore keeps sessions in a map. A max of zero means unlimited.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

func (ms *MemoryStore) Save(s *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.sessions[s.ID]; exists {
		return ErrDuplicateID
	}
	if ms.max > 0 && len(ms.sessions) >= ms.max {
		return ErrStoreFull
	}
	ms.sessions[s.ID] = s
	return nil
}

func (ms *MemoryStore) Get(id string) (*Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (ms *MemoryStore) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	return nil
}

// Expired returns the sessions whose expiry is before now.
func (ms *MemoryStore) Expired(now time.Time) []*Session {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []*Session
	for _, s := range ms.sessions {
		if s.Expired(now) {
			out = append(out, s)
		}
	}
	return out
}

func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}
