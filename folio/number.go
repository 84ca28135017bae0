package folio

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// NUMBER SOURCE - Deterministic, monotonic folio numbering
// =============================================================================

// NumberSource issues unique, human-readable folio numbers derived from
// a timestamp suffix. The sequence counter disambiguates numbers issued
// within the same second, so a single closure run can never collide.
type NumberSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last string
	seq  int
}

// NewNumberSource creates a NumberSource on the wall clock.
func NewNumberSource() *NumberSource {
	return &NumberSource{now: time.Now}
}

// NewNumberSourceAt creates a NumberSource on a caller-supplied clock.
// Used by tests for deterministic numbers.
func NewNumberSourceAt(now func() time.Time) *NumberSource {
	return &NumberSource{now: now}
}

// Next returns the next folio number, e.g. "F-20240603-214512-001".
func (s *NumberSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format("20060102-150405")
	if stamp == s.last {
		s.seq++
	} else {
		s.last = stamp
		s.seq = 1
	}
	return fmt.Sprintf("F-%s-%03d", stamp, s.seq)
}
