// internal/cache/settle.go
package cache

import (
	"sync"
	"time"
)

// MinSettle is the floor on the settle interval: free-text input must
// see at least this much quiet before it is treated as final.
const MinSettle = 250 * time.Millisecond

// Settler coalesces rapid input changes into settled values. Cache keys
// that embed free-text search must be built from settled values only,
// so request volume stays bounded without the cache itself carrying any
// debounce logic. The same value never settles twice in a row.
type Settler struct {
	d   time.Duration
	out chan string

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	last    string
	emitted bool
	stopped bool
}

// NewSettler creates a Settler with the given settle interval, clamped
// to MinSettle.
func NewSettler(d time.Duration) *Settler {
	if d < MinSettle {
		d = MinSettle
	}
	return &Settler{d: d, out: make(chan string, 1)}
}

// Set records a new input value and restarts the quiet-period timer.
func (s *Settler) Set(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = v
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.d, s.fire)
}

func (s *Settler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	v := s.pending
	if s.emitted && v == s.last {
		s.mu.Unlock()
		return
	}
	s.last = v
	s.emitted = true
	s.mu.Unlock()

	select {
	case s.out <- v:
	default:
		// unconsumed older value: replace it with the newer one
		select {
		case <-s.out:
		default:
		}
		select {
		case s.out <- v:
		default:
		}
	}
}

// Settled delivers values that have survived a full quiet period.
func (s *Settler) Settled() <-chan string {
	return s.out
}

// Stop discards any pending value and stops the timer.
func (s *Settler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
