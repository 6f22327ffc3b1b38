package runner

import "sync/atomic"

// Scheduler arranges for ticks to be delivered to a runner. The runner
// arms it on Start and disarms it on Pause, Reset and completion, so
// Pending is the single answer to "will another tick arrive".
type Scheduler interface {
	Schedule()
	Cancel()
	Pending() bool
}

// ManualScheduler only records whether ticks are wanted. It suits callers
// that invoke Tick themselves.
type ManualScheduler struct {
	armed atomic.Bool
}

func (s *ManualScheduler) Schedule()     { s.armed.Store(true) }
func (s *ManualScheduler) Cancel()       { s.armed.Store(false) }
func (s *ManualScheduler) Pending() bool { return s.armed.Load() }
