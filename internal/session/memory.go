// Package session provides the stores that hold validation sessions between
// requests: a process-local MemoryStore and a RedisStore for deployments
// running more than one server.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * time.Minute

// MemoryStore keeps sessions in process memory. Each session has its own
// mutex; the map lock is only held to find or insert an entry, so sessions
// never wait on each other.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl time.Duration
	now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	sess    core.ValidationSession
	expires time.Time
	removed bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store whose sessions expire ttl after their last use.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ core.SessionStore = (*MemoryStore)(nil)

// acquire returns the locked entry for id, creating it when create is set.
// It returns nil if the session does not exist or has expired.
func (s *MemoryStore) acquire(id string, create bool) *entry {
	for {
		s.mu.Lock()
		e := s.entries[id]
		if e == nil {
			if !create {
				s.mu.Unlock()
				return nil
			}
			e = &entry{}
			s.entries[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			// Lost a race with Discard or Sweep; look again.
			e.mu.Unlock()
			continue
		}
		if create {
			return e
		}
		if e.sess.Version == "" || !s.now().Before(e.expires) {
			if e.sess.Version != "" {
				s.drop(id, e)
			}
			e.mu.Unlock()
			return nil
		}
		return e
	}
}

// drop unlinks e. The caller holds e.mu.
func (s *MemoryStore) drop(id string, e *entry) {
	e.removed = true
	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

func (s *MemoryStore) touch(e *entry) {
	now := s.now()
	e.sess.UpdatedAt = now
	e.expires = now.Add(s.ttl)
}

func (s *MemoryStore) Replace(_ context.Context, sessionID string, outcomes []core.SheetOutcome) (core.ValidationSession, error) {
	e := s.acquire(sessionID, true)
	defer e.mu.Unlock()

	sheets := make([]core.SheetOutcome, len(outcomes))
	for i, o := range outcomes {
		sheets[i] = o.Clone()
	}
	e.sess = core.ValidationSession{
		ID:      sessionID,
		Version: uuid.NewString(),
		Sheets:  sheets,
	}
	s.touch(e)
	return e.sess.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (core.ValidationSession, error) {
	e := s.acquire(sessionID, false)
	if e == nil {
		return core.ValidationSession{}, core.SessionNotFound(sessionID)
	}
	defer e.mu.Unlock()

	e.expires = s.now().Add(s.ttl)
	return e.sess.Clone(), nil
}

func (s *MemoryStore) RemoveRow(_ context.Context, sessionID, sheetName string, rowNumber int) (core.SheetOutcome, error) {
	e := s.acquire(sessionID, false)
	if e == nil {
		return core.SheetOutcome{}, core.SessionNotFound(sessionID)
	}
	defer e.mu.Unlock()

	i := e.sess.SheetIndex(sheetName)
	if i < 0 {
		return core.SheetOutcome{}, core.SheetNotFound(sheetName)
	}
	if !e.sess.Sheets[i].RemoveRow(rowNumber) {
		return core.SheetOutcome{}, core.RowNotFound(sheetName, rowNumber)
	}
	s.touch(e)
	return e.sess.Sheets[i].Clone(), nil
}

func (s *MemoryStore) ConsumeSheet(_ context.Context, sessionID, sheetName string) (core.ConsumedSheet, error) {
	e := s.acquire(sessionID, false)
	if e == nil {
		return core.ConsumedSheet{}, core.SessionNotFound(sessionID)
	}
	defer e.mu.Unlock()

	i := e.sess.SheetIndex(sheetName)
	if i < 0 {
		return core.ConsumedSheet{}, core.SheetNotFound(sheetName)
	}
	consumed := core.ConsumedSheet{
		Outcome: e.sess.Sheets[i].Clone(),
		Index:   i,
		Version: e.sess.Version,
	}
	e.sess.Sheets = append(e.sess.Sheets[:i], e.sess.Sheets[i+1:]...)
	s.touch(e)
	return consumed, nil
}

func (s *MemoryStore) RestoreSheet(_ context.Context, sessionID string, consumed core.ConsumedSheet) (bool, error) {
	e := s.acquire(sessionID, false)
	if e == nil {
		return false, nil
	}
	defer e.mu.Unlock()

	if !restoreInto(&e.sess, consumed) {
		return false, nil
	}
	s.touch(e)
	return true, nil
}

func (s *MemoryStore) Discard(_ context.Context, sessionID string) error {
	e := s.acquire(sessionID, false)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()
	s.drop(sessionID, e)
	return nil
}

// Sweep removes expired sessions and returns how many it removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	candidates := make(map[string]*entry, len(s.entries))
	for id, e := range s.entries {
		candidates[id] = e
	}
	s.mu.Unlock()

	removed := 0
	for id, e := range candidates {
		e.mu.Lock()
		if !e.removed && e.sess.Version != "" && !now.Before(e.expires) {
			s.drop(id, e)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len returns the number of sessions held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// restoreInto re-inserts a consumed sheet if the session is still the one it
// was taken from and the name is free.
func restoreInto(sess *core.ValidationSession, consumed core.ConsumedSheet) bool {
	if sess.Version != consumed.Version {
		return false
	}
	if sess.SheetIndex(consumed.Outcome.SheetName) >= 0 {
		return false
	}
	i := consumed.Index
	if i < 0 || i > len(sess.Sheets) {
		i = len(sess.Sheets)
	}
	sess.Sheets = append(sess.Sheets, core.SheetOutcome{})
	copy(sess.Sheets[i+1:], sess.Sheets[i:])
	sess.Sheets[i] = consumed.Outcome.Clone()
	return true
}
