package orderid

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Generator produces merchant order numbers: a 14-digit second-precision
// timestamp followed by a 3-digit random suffix. Same-second collisions are
// possible and surface as a unique-constraint failure on insert; callers
// regenerate and retry.
type Generator struct {
	mu      sync.Mutex
	nowFunc func() time.Time
	rng     *rand.Rand
}

// New creates a Generator backed by the wall clock.
func New() *Generator {
	return &Generator{
		nowFunc: time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithClock creates a Generator with an injected clock and seed, for tests.
func NewWithClock(nowFunc func() time.Time, seed int64) *Generator {
	return &Generator{
		nowFunc: nowFunc,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Next returns a fresh order number.
func (g *Generator) Next() string {
	g.mu.Lock()
	suffix := g.rng.Intn(1000)
	g.mu.Unlock()

	return fmt.Sprintf("%s%03d", g.nowFunc().Format("20060102150405"), suffix)
}
