package search

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
)

// Selector picks a diverse subset of candidates for one topic. "Diverse"
// means two things: never an image already assigned elsewhere in the deck
// (strict no-reuse), and not simply the top N by provider rank — a few
// top-ranked picks plus a random spread from deeper in the pool, shuffled
// so concatenated topic results don't all lead with the same-looking
// most-relevant shots.
type Selector struct {
	mu     sync.Mutex // math/rand.Rand is not goroutine-safe
	rng    *rand.Rand
	logger *zap.Logger
}

// NewSelector creates a selector. Pass a non-zero seed for deterministic
// selection in tests; zero seeds from the clock.
func NewSelector(seed int64, logger *zap.Logger) *Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// Pick selects at most n candidates from the pool, skipping anything
// already used in this session, and marks every returned candidate as used.
// The filter-and-mark step runs as one atomic unit under the session lock.
//
// When the deduplicated pool is smaller than n the shortfall is logged and
// fewer images are returned — the pipeline prefers fewer unique images over
// reusing one.
func (s *Selector) Pick(pool []model.ImageCandidate, n int, sess *Session) []model.ImageCandidate {
	if n <= 0 || len(pool) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Filter: drop used images and in-pool duplicates, keep rank order.
	fresh := make([]model.ImageCandidate, 0, len(pool))
	inPool := make(map[string]struct{}, len(pool))
	for _, c := range pool {
		id := c.Identity()
		if id == "" {
			continue
		}
		if _, ok := sess.used[id]; ok {
			continue
		}
		if _, ok := inPool[id]; ok {
			continue
		}
		inPool[id] = struct{}{}
		fresh = append(fresh, c)
	}

	var picks []model.ImageCandidate
	if len(fresh) <= n {
		picks = fresh
		if len(fresh) < n {
			s.logger.Warn("candidate pool under-supplies request",
				zap.String("deck_id", sess.DeckID),
				zap.Int("requested", n),
				zap.Int("available", len(fresh)),
			)
		}
	} else {
		picks = s.diversePick(fresh, n)
	}

	for _, c := range picks {
		sess.used[c.Identity()] = struct{}{}
	}
	return picks
}

// diversePick implements the variety policy for an over-supplied pool:
// a few from the head (most relevant), a random sample from the middle
// third of the remainder, random fill from whatever is left, then a final
// shuffle. Caller holds both locks and guarantees len(fresh) > n > 0.
func (s *Selector) diversePick(fresh []model.ImageCandidate, n int) []model.ImageCandidate {
	headCount := n / 2
	if headCount > 3 {
		headCount = 3
	}

	picks := make([]model.ImageCandidate, 0, n)
	picks = append(picks, fresh[:headCount]...)

	rest := fresh[headCount:]
	taken := make(map[int]struct{})

	// Random sample from the middle third of the remaining pool.
	midStart := len(rest) / 3
	midEnd := 2 * len(rest) / 3
	for _, idx := range s.sampleIndexes(midStart, midEnd, n-len(picks)) {
		taken[idx] = struct{}{}
		picks = append(picks, rest[idx])
	}

	// Fill remaining slots from whatever is left, in random order.
	if len(picks) < n {
		leftover := make([]int, 0, len(rest))
		for i := range rest {
			if _, ok := taken[i]; !ok {
				leftover = append(leftover, i)
			}
		}
		s.rng.Shuffle(len(leftover), func(i, j int) {
			leftover[i], leftover[j] = leftover[j], leftover[i]
		})
		for _, idx := range leftover {
			picks = append(picks, rest[idx])
			if len(picks) == n {
				break
			}
		}
	}

	s.rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	return picks
}

// sampleIndexes returns up to count distinct indexes from [start, end),
// in random order.
func (s *Selector) sampleIndexes(start, end, count int) []int {
	if count <= 0 || start >= end {
		return nil
	}
	indexes := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indexes = append(indexes, i)
	}
	s.rng.Shuffle(len(indexes), func(i, j int) {
		indexes[i], indexes[j] = indexes[j], indexes[i]
	})
	if count < len(indexes) {
		indexes = indexes[:count]
	}
	return indexes
}
