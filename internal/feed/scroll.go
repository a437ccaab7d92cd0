package feed

import (
	"sync"
	"time"
)

// Anchor is a saved scroll reference: the topmost visible item and the
// offset such that the item's top plus the offset is the scroll top. The
// viewport dimensions at capture time decide whether restoration can reuse
// the offset directly.
type Anchor struct {
	ItemPath       string
	Offset         int
	ViewportWidth  int
	ViewportHeight int
}

// ScrollStore maps deck identifiers to their last scroll anchor. It is a
// process-scoped object created at startup and injected wherever needed; it
// survives feed teardown and is only emptied entry by entry when a deck is
// permanently closed. Writes are suppressed for a grace window after a deck
// switch so a transient reset-to-zero never overwrites a real anchor.
type ScrollStore struct {
	mu            sync.Mutex
	anchors       map[string]Anchor
	suppressUntil time.Time
	now           func() time.Time
}

// NewScrollStore creates an empty store.
func NewScrollStore() *ScrollStore {
	return &ScrollStore{
		anchors: make(map[string]Anchor),
		now:     time.Now,
	}
}

// Save records the anchor for a deck. Saves inside the suppression window
// are dropped.
func (s *ScrollStore) Save(deckID string, anchor Anchor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Before(s.suppressUntil) {
		return
	}
	s.anchors[deckID] = anchor
}

// Load returns the saved anchor for a deck.
func (s *ScrollStore) Load(deckID string) (Anchor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.anchors[deckID]
	return a, ok
}

// Delete removes a deck's anchor. Only called on permanent deck close,
// never on hide or switch.
func (s *ScrollStore) Delete(deckID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.anchors, deckID)
}

// SuppressWrites drops Save calls for the given duration, measured from now.
func (s *ScrollStore) SuppressWrites(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.now().Add(d)
	if until.After(s.suppressUntil) {
		s.suppressUntil = until
	}
}
