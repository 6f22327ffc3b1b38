package series

import "sync"

// SamplePoint is one reading of the shear curve
type SamplePoint struct {
	DisplacementMm float64 `json:"displacement_mm"`
	ShearStressKPa float64 `json:"shear_stress_kpa"`
	VerticalMm     float64 `json:"vertical_mm"`
	ShearForceKN   float64 `json:"shear_force_kn"`
}

// FailurePoint is one (σ, τf) pair of the Mohr-Coulomb envelope
type FailurePoint struct {
	NormalStressKPa    float64 `json:"normal_stress_kpa"`
	ShearStrengthKPa   float64 `json:"shear_strength_kpa"`
	PeakDisplacementMm float64 `json:"peak_displacement_mm"`
	RunID              string  `json:"run_id,omitempty"`
}

// Recorder keeps the samples of a single run in a ring buffer.
// A cap of zero retains every sample.
type Recorder struct {
	cap   int
	buf   []SamplePoint
	start int // index of the oldest sample once the buffer is full
	env   *Envelope
}

// NewRecorder creates a recorder writing failure points to env.
// A nil env gets a private envelope.
func NewRecorder(capacity int, env *Envelope) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	if env == nil {
		env = NewEnvelope()
	}
	r := &Recorder{cap: capacity, env: env}
	if capacity > 0 {
		r.buf = make([]SamplePoint, 0, capacity)
	}
	return r
}

// Cap returns the retained-sample limit, 0 when unbounded
func (r *Recorder) Cap() int {
	return r.cap
}

// Append adds a sample, evicting the oldest when the cap is reached
func (r *Recorder) Append(p SamplePoint) {
	if r.cap == 0 || len(r.buf) < r.cap {
		r.buf = append(r.buf, p)
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % r.cap
}

// Len returns the number of retained samples
func (r *Recorder) Len() int {
	return len(r.buf)
}

// Latest returns the most recent sample
func (r *Recorder) Latest() (SamplePoint, bool) {
	if len(r.buf) == 0 {
		return SamplePoint{}, false
	}
	i := len(r.buf) - 1
	if r.start > 0 {
		i = r.start - 1
	}
	return r.buf[i], true
}

// Samples returns a copy of the retained samples, oldest first
func (r *Recorder) Samples() []SamplePoint {
	out := make([]SamplePoint, 0, len(r.buf))
	out = append(out, r.buf[r.start:]...)
	out = append(out, r.buf[:r.start]...)
	return out
}

// Clear empties the samples. Failure points are kept.
func (r *Recorder) Clear() {
	r.buf = r.buf[:0]
	r.start = 0
}

// AddFailurePoint records a completed run on the envelope
func (r *Recorder) AddFailurePoint(p FailurePoint) {
	r.env.Add(p)
}

// FailurePoints returns the envelope points in insertion order
func (r *Recorder) FailurePoints() []FailurePoint {
	return r.env.Points()
}

// Envelope returns the accumulator this recorder writes to
func (r *Recorder) Envelope() *Envelope {
	return r.env
}

// Envelope accumulates failure points across runs. It is safe for use by
// several runners at once.
type Envelope struct {
	mu     sync.RWMutex
	points []FailurePoint
}

func NewEnvelope() *Envelope {
	return &Envelope{}
}

func (e *Envelope) Add(p FailurePoint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.points = append(e.points, p)
}

func (e *Envelope) Points() []FailurePoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]FailurePoint, len(e.points))
	copy(out, e.points)
	return out
}

func (e *Envelope) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.points)
}

// Clear drops every accumulated point
func (e *Envelope) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.points = nil
}
