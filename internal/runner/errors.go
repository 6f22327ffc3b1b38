package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when parameters violate their documented ranges
	ErrInvalidConfig = errors.New("runner: invalid config")

	// ErrInvalidTransition is returned when an operation is not allowed in the current phase
	ErrInvalidTransition = errors.New("runner: invalid transition")

	// ErrConcurrentTick is returned when a tick arrives while another is in progress
	ErrConcurrentTick = errors.New("runner: concurrent tick rejected")
)

var (
	ErrAlreadyRunning = fmt.Errorf("%w: already running", ErrInvalidTransition)
	ErrNotRunning     = fmt.Errorf("%w: not running", ErrInvalidTransition)
	// ErrNotStartable is returned by Start on a completed run; Reset first
	ErrNotStartable = fmt.Errorf("%w: run completed, reset required", ErrInvalidTransition)
)

// ConfigError reports the offending field of a rejected configuration
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// TransitionError reports an operation rejected in phase From
type TransitionError struct {
	Op   string
	From Phase
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in phase %s: %v", e.Op, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
