package session

import (
	"context"
	"log"
	"sync"
	"time"

	"goanova/domain/core"
	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/errors"
)

// Session is one user's analysis context. The table is replaced wholesale on
// upload; a Session value returned by the store is a snapshot.
type Session struct {
	ID         core.SessionID
	Table      *dataset.Table
	Source     string
	LoadedAt   time.Time
	CreatedAt  time.Time
	LastAccess time.Time
	LastANOVA  *stats.ANOVAReport
}

// HasTable reports whether a dataset has been loaded
func (s Session) HasTable() bool {
	return s.Table != nil
}

// Store keeps sessions in memory and evicts idle ones
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[core.SessionID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts an empty session
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{ID: core.NewSessionID(), CreatedAt: now, LastAccess: now}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log.Printf("[SessionStore] Created session %s", sess.ID)
	return *sess
}

// Get returns a snapshot of the session and marks it as used
func (s *Store) Get(id core.SessionID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, errors.NotFound("session " + id.String())
	}
	sess.LastAccess = s.now()
	return *sess, nil
}

// Replace swaps in a newly loaded table. The previous ANOVA result no longer
// describes the data and is dropped.
func (s *Store) Replace(id core.SessionID, table *dataset.Table, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return errors.NotFound("session " + id.String())
	}
	now := s.now()
	sess.Table = table
	sess.Source = source
	sess.LoadedAt = now
	sess.LastAccess = now
	sess.LastANOVA = nil
	return nil
}

// RecordANOVA keeps the latest ANOVA run for the session
func (s *Store) RecordANOVA(id core.SessionID, report *stats.ANOVAReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return errors.NotFound("session " + id.String())
	}
	sess.LastANOVA = report
	sess.LastAccess = s.now()
	return nil
}

// Delete removes a session
func (s *Store) Delete(id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return errors.NotFound("session " + id.String())
	}
	delete(s.sessions, id)
	log.Printf("[SessionStore] Deleted session %s", id)
	return nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were evicted. A non-positive TTL disables eviction.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccess) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[SessionStore] Evicted %d idle session(s), %d remaining", evicted, len(s.sessions))
	}
	return evicted
}

// StartJanitor sweeps on every interval until ctx is cancelled. The returned
// channel is closed once the janitor has stopped.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(s.now())
			}
		}
	}()
	return done
}
