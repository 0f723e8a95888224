// Package session holds all process-memory pending state: each user's
// position inside a multi-step flow and the short-lived tokens that
// correlate button presses with submitted URLs. Nothing here survives a
// restart; the database is the only durable state.
package session

import (
	"sync"
	"time"
)

// Kind names a flow family. Pending state is a single mutable slot per
// (user, kind): a new flow of the same kind overwrites the old one
// silently, flows of different kinds coexist.
type Kind string

const (
	KindModelSelect Kind = "model-select"
	KindIdeaCreate  Kind = "idea-create"
	KindIdeaEdit    Kind = "idea-edit"
	KindIdeaDelete  Kind = "idea-delete"
	KindLink        Kind = "link"
	KindDraft       Kind = "draft"
)

type key struct {
	UserID int64
	Kind   Kind
}

type entry struct {
	state   any
	expires time.Time
}

// Store keeps per-user flow state with last-write-wins semantics and
// TTL-based eviction for slots the user abandoned.
type Store struct {
	mu      sync.Mutex
	entries map[key]entry
	ttl     time.Duration
}

// NewStore builds an empty store; ttl bounds how long an abandoned slot
// lives before the sweeper drops it.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		entries: map[key]entry{},
		ttl:     ttl,
	}
}

// Put stores flow state for the user, replacing whatever was pending.
func (s *Store) Put(userID int64, kind Kind, state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{UserID: userID, Kind: kind}] = entry{
		state:   state,
		expires: time.Now().Add(s.ttl),
	}
}

// Get returns the pending state for the user and kind, if any.
func (s *Store) Get(userID int64, kind Kind) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key{UserID: userID, Kind: kind}]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.state, true
}

// Clear drops the slot; flows call it on every terminal transition.
func (s *Store) Clear(userID int64, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{UserID: userID, Kind: kind})
}

// HasAny reports whether the user has any pending flow of the given kinds.
func (s *Store) HasAny(userID int64, kinds ...Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, kind := range kinds {
		if e, ok := s.entries[key{UserID: userID, Kind: kind}]; ok && now.Before(e.expires) {
			return true
		}
	}
	return false
}

// Sweep evicts expired slots and returns how many were dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
			dropped++
		}
	}
	return dropped
}
