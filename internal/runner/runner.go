package runner

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexiusacademia/goshear/internal/constitutive"
	"github.com/alexiusacademia/goshear/internal/series"
)

// completionTolerance absorbs floating-point drift in accumulated displacement
const completionTolerance = 1e-9

// Phase of a test run
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// RunState is a snapshot of the run
type RunState struct {
	DisplacementMm float64
	ElapsedTicks   int
	ElapsedSeconds float64 // driven time, before TimeScale
	Phase          Phase
}

// Event names what produced an Update
type Event int

const (
	EventStarted Event = iota
	EventPaused
	EventTicked
	EventCompleted
	EventReset
)

var eventNames = [...]string{"started", "paused", "ticked", "completed", "reset"}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// Update is delivered to subscribers whenever the run state changes
type Update struct {
	RunID     string
	Event     Event
	State     RunState
	Sample    series.SamplePoint
	HasSample bool
	Response  constitutive.Response
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithScheduler sets the tick scheduler; the default is a ManualScheduler
func WithScheduler(s Scheduler) Option {
	return func(r *Runner) { r.sched = s }
}

// WithRecorder sets the sample recorder
func WithRecorder(rec *series.Recorder) Option {
	return func(r *Runner) { r.rec = rec }
}

// WithRejectHook is called with every rejected operation
func WithRejectHook(fn func(op string, err error)) Option {
	return func(r *Runner) { r.onReject = fn }
}

// Runner owns the state of one direct-shear test. Ticks are serialized:
// a tick arriving while another is in progress, including one issued from
// a subscriber, is rejected with ErrConcurrentTick.
type Runner struct {
	mu         sync.RWMutex
	runID      string
	cfg        Config
	in         constitutive.Inputs
	configured bool
	state      RunState
	peakStress float64
	peakAtMm   float64

	rec      *series.Recorder
	sched    Scheduler
	log      *zap.Logger
	onReject func(op string, err error)

	ticking atomic.Bool

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn func(Update)
}

// New creates an idle, unconfigured runner
func New(opts ...Option) *Runner {
	r := &Runner{
		runID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.sched == nil {
		r.sched = &ManualScheduler{}
	}
	if r.rec == nil {
		r.rec = series.NewRecorder(0, nil)
	}
	return r
}

// Configure validates and stores cfg. It takes effect on the next tick;
// the peak of a run in progress is re-evaluated against the new sample.
// On error nothing changes.
func (r *Runner) Configure(cfg Config) error {
	r.mu.Lock()
	in, err := cfg.inputs()
	if err == nil && cfg.Test.MaxDisplacementMm < r.state.DisplacementMm {
		err = &ConfigError{Field: "max_displacement_mm", Value: cfg.Test.MaxDisplacementMm,
			Reason: fmt.Sprintf("below current displacement %.3f mm", r.state.DisplacementMm)}
	}
	if err != nil {
		r.mu.Unlock()
		r.reject("configure", err)
		return err
	}
	r.cfg = cfg
	r.in = in
	r.configured = true
	r.trackPeak()
	r.mu.Unlock()

	r.log.Debug("configured",
		zap.String("run_id", r.RunID()),
		zap.Stringer("soil", cfg.Soil.Category),
		zap.Stringer("saturation", cfg.Soil.Saturation),
		zap.Float64("normal_stress_kpa", cfg.Test.NormalStressKPa),
		zap.Float64("speed_mm_per_min", cfg.Test.SpeedMmPerMin))
	return nil
}

// Start moves Idle or Paused to Running
func (r *Runner) Start() error {
	r.mu.Lock()
	var err error
	switch {
	case r.state.Phase == Running:
		err = &TransitionError{Op: "start", From: r.state.Phase, Err: ErrAlreadyRunning}
	case r.state.Phase == Completed:
		err = &TransitionError{Op: "start", From: r.state.Phase, Err: ErrNotStartable}
	case !r.configured:
		err = &ConfigError{Field: "config", Reason: "runner not configured"}
	}
	if err != nil {
		r.mu.Unlock()
		r.reject("start", err)
		return err
	}
	from := r.state.Phase
	r.state.Phase = Running
	r.sched.Schedule()
	u := r.update(EventStarted)
	r.mu.Unlock()

	r.log.Debug("run started", zap.String("run_id", u.RunID), zap.Stringer("from", from))
	r.notify(u)
	return nil
}

// Pause moves Running to Paused
func (r *Runner) Pause() error {
	r.mu.Lock()
	if r.state.Phase != Running {
		err := &TransitionError{Op: "pause", From: r.state.Phase, Err: ErrNotRunning}
		r.mu.Unlock()
		r.reject("pause", err)
		return err
	}
	r.state.Phase = Paused
	r.sched.Cancel()
	u := r.update(EventPaused)
	r.mu.Unlock()

	r.log.Debug("run paused", zap.String("run_id", u.RunID), zap.Float64("displacement_mm", u.State.DisplacementMm))
	r.notify(u)
	return nil
}

// Reset returns to Idle from any phase, clearing displacement, ticks and
// samples. Failure points on the envelope are kept. Resetting an already
// idle, empty run changes nothing and notifies no one.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.sched.Cancel()
	if r.state == (RunState{}) && r.rec.Len() == 0 {
		r.mu.Unlock()
		return
	}
	r.state = RunState{}
	r.peakStress, r.peakAtMm = 0, 0
	r.rec.Clear()
	r.runID = uuid.NewString()
	u := r.update(EventReset)
	r.mu.Unlock()

	r.log.Debug("run reset", zap.String("run_id", u.RunID))
	r.notify(u)
}

// Tick advances the run by dt seconds of driven time.
func (r *Runner) Tick(dt float64) error {
	if !r.ticking.CompareAndSwap(false, true) {
		r.reject("tick", ErrConcurrentTick)
		return ErrConcurrentTick
	}
	defer r.ticking.Store(false)

	r.mu.Lock()
	if r.state.Phase != Running {
		err := &TransitionError{Op: "tick", From: r.state.Phase, Err: ErrNotRunning}
		r.mu.Unlock()
		r.reject("tick", err)
		return err
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		r.mu.Unlock()
		err := &ConfigError{Field: "delta_time_s", Value: dt, Reason: "must be a finite, non-negative duration"}
		r.reject("tick", err)
		return err
	}

	t := r.cfg.Test
	d := r.state.DisplacementMm + t.SpeedMmPerMin/60*dt*t.TimeScale
	done := d >= t.MaxDisplacementMm-completionTolerance
	if done {
		d = t.MaxDisplacementMm
	}

	resp := constitutive.Evaluate(d, r.in)
	r.state.DisplacementMm = d
	r.state.ElapsedTicks++
	r.state.ElapsedSeconds += dt
	r.trackPeak()

	sample := series.SamplePoint{
		DisplacementMm: d,
		ShearStressKPa: resp.ShearStressKPa,
		VerticalMm:     resp.VerticalMm,
		ShearForceKN:   resp.ShearForceKN,
	}
	r.rec.Append(sample)

	event := EventTicked
	var fp series.FailurePoint
	if done {
		r.state.Phase = Completed
		r.sched.Cancel()
		fp = series.FailurePoint{
			NormalStressKPa:    t.NormalStressKPa,
			ShearStrengthKPa:   r.peakStress,
			PeakDisplacementMm: r.peakAtMm,
			RunID:              r.runID,
		}
		r.rec.AddFailurePoint(fp)
		event = EventCompleted
	}
	u := r.update(event)
	u.Sample, u.HasSample, u.Response = sample, true, resp
	r.mu.Unlock()

	if done {
		r.log.Info("run completed",
			zap.String("run_id", u.RunID),
			zap.Int("ticks", u.State.ElapsedTicks),
			zap.Float64("normal_stress_kpa", fp.NormalStressKPa),
			zap.Float64("shear_strength_kpa", fp.ShearStrengthKPa),
			zap.Float64("peak_displacement_mm", fp.PeakDisplacementMm))
	}
	r.notify(u)
	return nil
}

// Subscribe registers fn for state updates and returns a function that
// removes it. fn runs on the goroutine that changed the state.
func (r *Runner) Subscribe(fn func(Update)) (unsubscribe func()) {
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

// State returns a snapshot of the run
func (r *Runner) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Config returns the stored configuration
func (r *Runner) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Configured reports whether Configure has succeeded at least once
func (r *Runner) Configured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configured
}

// RunID identifies the current run; it changes on Reset
func (r *Runner) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// LatestSample returns the most recent sample of the run
func (r *Runner) LatestSample() (series.SamplePoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rec.Latest()
}

// Samples returns the retained samples, oldest first
func (r *Runner) Samples() []series.SamplePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rec.Samples()
}

// FailureEnvelope returns the failure points of every completed run
// sharing this runner's envelope
func (r *Runner) FailureEnvelope() []series.FailurePoint {
	return r.rec.FailurePoints()
}

// trackPeak sets the peak to the maximum of the current curve over the
// displacement covered so far. It does not depend on where ticks landed,
// and after a reconfigure it reflects the new sample. Callers hold mu.
func (r *Runner) trackPeak() {
	r.peakStress, r.peakAtMm = constitutive.PeakUpTo(r.state.DisplacementMm, constitutive.CurveFor(r.in))
}

// Peak returns the highest shear stress of this run and where it occurred
func (r *Runner) Peak() (stressKPa, displacementMm float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peakStress, r.peakAtMm
}

// PeakStrength returns the Mohr-Coulomb strength of the configured sample
func (r *Runner) PeakStrength() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return constitutive.CurveFor(r.in).PeakStrength
}

// Inputs returns the resolved parameters of the configured sample
func (r *Runner) Inputs() constitutive.Inputs {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.in
}

// TickPending reports whether the scheduler will deliver another tick
func (r *Runner) TickPending() bool {
	return r.sched.Pending()
}

// update must be called with r.mu held
func (r *Runner) update(e Event) Update {
	return Update{RunID: r.runID, Event: e, State: r.state}
}

func (r *Runner) notify(u Update) {
	r.subMu.Lock()
	fns := make([]func(Update), 0, len(r.subs))
	for _, s := range r.subs {
		fns = append(fns, s.fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func (r *Runner) reject(op string, err error) {
	r.log.Debug("operation rejected", zap.String("op", op), zap.Error(err))
	if r.onReject != nil {
		r.onReject(op, err)
	}
}
