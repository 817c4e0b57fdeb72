// Package search implements the topic-based parallel image search pipeline:
// fan out one provider search per unique topic, select a diverse
// non-repeating subset per topic, and fan the results back onto every slide
// that asked for that topic, emitting progress events as work completes.
package search

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the mutable state scoped to one deck-generation run: the
// deck-wide set of image identities already assigned to some slide. It is
// created at the start of a run, shared by reference across the run's
// concurrent topic searches, and discarded when the run ends — no hidden
// process-wide state, so concurrent runs for different decks can't
// interfere with each other.
type Session struct {
	RunID  string
	DeckID string

	// mu guards used. The selector holds it across its whole
	// filter-then-mark step so no two concurrent selections for the same
	// deck can claim the same image.
	mu   sync.Mutex
	used map[string]struct{}
}

// NewSession creates the usage-tracking session for one deck run.
func NewSession(deckID string) *Session {
	return &Session{
		RunID:  uuid.NewString(),
		DeckID: deckID,
		used:   make(map[string]struct{}),
	}
}

// UsedCount returns how many image identities have been assigned so far.
func (s *Session) UsedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.used)
}
