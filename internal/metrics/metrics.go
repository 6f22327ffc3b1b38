package metrics

import (
	"errors"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/alexiusacademia/goshear/internal/runner"
)

const (
	LabelSoil   = "soil"
	LabelOp     = "op"
	LabelReason = "reason"
)

// Collector holds the simulator metrics on a private registry
type Collector struct {
	Registry *prometheus.Registry

	Ticks         *prometheus.CounterVec
	RunsCompleted *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
	Displacement  prometheus.Gauge
	ShearStress   prometheus.Gauge
	ShearStrength *prometheus.GaugeVec
	TicksPerRun   prometheus.Histogram
}

// New creates and registers the collectors
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goshear_ticks_total",
			Help: "The number of ticks applied to a running test",
		}, []string{LabelSoil}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goshear_runs_completed_total",
			Help: "The number of tests that reached the maximum displacement",
		}, []string{LabelSoil}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goshear_rejected_operations_total",
			Help: "The number of operations rejected by a runner",
		}, []string{LabelOp, LabelReason}),
		Displacement: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goshear_displacement_mm",
			Help: "Horizontal displacement of the latest sample",
		}),
		ShearStress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goshear_shear_stress_kpa",
			Help: "Shear stress of the latest sample",
		}),
		ShearStrength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "goshear_failure_shear_strength_kpa",
			Help: "Shear strength recorded at completion, by normal stress",
		}, []string{"normal_stress_kpa"}),
		TicksPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "goshear_ticks_per_run",
			Help:    "Ticks needed to complete a test",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}),
	}
	c.Registry.MustRegister(c.Ticks, c.RunsCompleted, c.Rejected, c.Displacement,
		c.ShearStress, c.ShearStrength, c.TicksPerRun)
	return c
}

// Watch subscribes the collector to r and returns the unsubscribe func
func (c *Collector) Watch(r *runner.Runner) func() {
	return r.Subscribe(func(u runner.Update) {
		if !u.HasSample {
			return
		}
		soilName := r.Config().Soil.Category.String()
		c.Ticks.WithLabelValues(soilName).Inc()
		c.Displacement.Set(u.Sample.DisplacementMm)
		c.ShearStress.Set(u.Sample.ShearStressKPa)

		if u.Event == runner.EventCompleted {
			c.RunsCompleted.WithLabelValues(soilName).Inc()
			c.TicksPerRun.Observe(float64(u.State.ElapsedTicks))
			stress, _ := r.Peak()
			sigma := prometheus.Labels{"normal_stress_kpa": formatStress(r.Config().Test.NormalStressKPa)}
			c.ShearStrength.With(sigma).Set(stress)
		}
	})
}

// ObserveRejection matches runner.WithRejectHook
func (c *Collector) ObserveRejection(op string, err error) {
	c.Rejected.WithLabelValues(op, reason(err)).Inc()
}

// WriteText writes every metric in the Prometheus text format
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, runner.ErrConcurrentTick):
		return "concurrent_tick"
	case errors.Is(err, runner.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, runner.ErrInvalidConfig):
		return "invalid_config"
	}
	return "other"
}

func formatStress(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
