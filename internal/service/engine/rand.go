package engine

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies the bounded draw behind the cost estimate. It
// is injected so tests can pin the diagnosis to a known value.
type RandomSource interface {
	// IntN returns a non-negative value below n. n must be positive.
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns the production RandomSource, seeded from the clock
// and safe for use from concurrent sessions.
func NewRand() RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
