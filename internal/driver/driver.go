// Package driver delivers ticks to a runner, either on a fixed logical
// timestep or from measured wall-clock time.
package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexiusacademia/goshear/internal/runner"
)

// Target is what a driver ticks
type Target interface {
	Tick(dt float64) error
	State() runner.RunState
}

// FixedStep ticks with a constant dt for as long as ticks are pending.
// Results do not depend on host speed.
type FixedStep struct {
	runner.ManualScheduler
	Step     float64 // seconds per tick
	MaxTicks int     // 0 = no limit
}

// NewFixedStep returns a driver ticking at rate Hz
func NewFixedStep(rate float64) *FixedStep {
	return &FixedStep{Step: 1 / rate}
}

// Run ticks t until the scheduler is disarmed, the context ends or
// MaxTicks is reached. It returns the number of ticks delivered.
func (f *FixedStep) Run(ctx context.Context, t Target) (int, error) {
	n := 0
	for f.Pending() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if f.MaxTicks > 0 && n >= f.MaxTicks {
			return n, nil
		}
		if err := t.Tick(f.Step); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Ticker ticks from a time.Ticker and passes the measured elapsed time as
// dt. Time spent paused is not counted.
type Ticker struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	pending bool
	wake    chan struct{}
}

// NewTicker returns a wall-clock driver firing every interval
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{
		interval: interval,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
}

func (t *Ticker) Schedule() {
	t.mu.Lock()
	t.pending = true
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Ticker) Cancel() {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
}

func (t *Ticker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Run drives target until it completes, is reset after it has started,
// or ctx ends. A rejected concurrent tick is skipped; the next one carries
// the elapsed time forward.
func (t *Ticker) Run(ctx context.Context, target Target) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	last := t.now()
	started := false
	for {
		switch phase := target.State().Phase; {
		case phase == runner.Completed:
			return nil
		case phase != runner.Idle || t.Pending():
			started = true
		case started:
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.wake:
			last = t.now()
		case <-tk.C:
			if !t.Pending() {
				continue
			}
			now := t.now()
			dt := now.Sub(last).Seconds()
			err := target.Tick(dt)
			switch {
			case err == nil:
				last = now
			case errors.Is(err, runner.ErrConcurrentTick):
			case errors.Is(err, runner.ErrInvalidTransition):
				// paused or reset between the check and the tick
				last = now
			default:
				return err
			}
		}
	}
}
