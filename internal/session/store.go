package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"diagram2terraform/internal/workflow"
)

type Session struct {
	ID           string
	Workflow     *workflow.Workflow
	CreatedAt    time.Time
	LastActivity time.Time
}

type Options struct {
	TTL         time.Duration
	NewWorkflow func() *workflow.Workflow
}

// Store keeps one workflow per session key, in memory only.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	newWorkflow func() *workflow.Workflow
	now         func() time.Time
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	newWorkflow := opts.NewWorkflow
	if newWorkflow == nil {
		newWorkflow = func() *workflow.Workflow { return workflow.New(workflow.Options{}) }
	}

	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		newWorkflow: newWorkflow,
		now:         time.Now,
	}
}

// Create starts a session under a fresh random ID.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(uuid.NewString())
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.LastActivity = s.now()
	}
	return sess, ok
}

// GetOrCreate is for front-ends with their own stable identities, such as
// a chat/user pair.
func (s *Store) GetOrCreate(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		sess.LastActivity = s.now()
		return sess
	}
	return s.createLocked(key)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// CleanupExpired drops sessions idle for longer than the TTL and reports
// how many were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.CleanupExpired()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (s *Store) createLocked(id string) *Session {
	now := s.now()
	sess := &Session{
		ID:           id,
		Workflow:     s.newWorkflow(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[id] = sess
	return sess
}
