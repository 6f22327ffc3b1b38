package report

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/alexiusacademia/goshear/internal/series"
)

// MinFitPoints is the smallest number of distinct normal stresses Fit accepts
const MinFitPoints = 3

// ErrInsufficientPoints is returned by Fit with fewer than MinFitPoints distinct normal stresses
var ErrInsufficientPoints = errors.New("report: not enough failure points to fit an envelope")

// DefaultEnvelopeStresses are the normal stresses of the theoretical envelope line
var DefaultEnvelopeStresses = []float64{0, 100, 200, 300, 400}

// Aggregator summarizes completed runs. Cohesion and friction angle are
// read back from the configured sample; Fit derives them from the data.
type Aggregator struct {
	cohesion         float64
	frictionAngleDeg float64
	points           []series.FailurePoint
}

// Row is one line of the results table
type Row struct {
	NormalStressKPa    float64
	ShearStrengthKPa   float64
	PeakDisplacementMm float64
}

// Fit is a least-squares Mohr-Coulomb envelope
type Fit struct {
	Cohesion         float64 // intercept (kPa)
	FrictionAngleDeg float64 // atan(slope)
	RSquared         float64
	N                int
}

// NewAggregator creates an aggregator over a copy of points
func NewAggregator(cohesion, frictionAngleDeg float64, points []series.FailurePoint) *Aggregator {
	cp := make([]series.FailurePoint, len(points))
	copy(cp, points)
	return &Aggregator{cohesion: cohesion, frictionAngleDeg: frictionAngleDeg, points: cp}
}

func (a *Aggregator) Cohesion() float64         { return a.cohesion }
func (a *Aggregator) FrictionAngleDeg() float64 { return a.frictionAngleDeg }
func (a *Aggregator) Len() int                  { return len(a.points) }

// MaxShearStress returns the largest shear strength over all runs, 0 when empty
func (a *Aggregator) MaxShearStress() float64 {
	m := 0.0
	for _, p := range a.points {
		m = math.Max(m, p.ShearStrengthKPa)
	}
	return m
}

// Rows returns the results table ordered by normal stress
func (a *Aggregator) Rows() []Row {
	rows := make([]Row, 0, len(a.points))
	for _, p := range a.points {
		rows = append(rows, Row{
			NormalStressKPa:    p.NormalStressKPa,
			ShearStrengthKPa:   p.ShearStrengthKPa,
			PeakDisplacementMm: p.PeakDisplacementMm,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].NormalStressKPa < rows[j].NormalStressKPa
	})
	return rows
}

// Fit regresses τ = c + σ·tan(φ) over the failure points
func (a *Aggregator) Fit() (Fit, error) {
	distinct := make(map[float64]struct{})
	x := make([]float64, 0, len(a.points))
	y := make([]float64, 0, len(a.points))
	for _, p := range a.points {
		distinct[p.NormalStressKPa] = struct{}{}
		x = append(x, p.NormalStressKPa)
		y = append(y, p.ShearStrengthKPa)
	}
	if len(distinct) < MinFitPoints {
		return Fit{}, fmt.Errorf("%w: have %d distinct normal stresses, need %d",
			ErrInsufficientPoints, len(distinct), MinFitPoints)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Fit{
		Cohesion:         alpha,
		FrictionAngleDeg: math.Atan(beta) * 180 / math.Pi,
		RSquared:         stat.RSquared(x, y, nil, alpha, beta),
		N:                len(x),
	}, nil
}

// EnvelopeLine evaluates τ = c + σ·tan(φ) at each normal stress
func EnvelopeLine(cohesion, frictionAngleDeg float64, stresses []float64) []series.FailurePoint {
	tanPhi := math.Tan(frictionAngleDeg * math.Pi / 180)
	out := make([]series.FailurePoint, len(stresses))
	for i, s := range stresses {
		out[i] = series.FailurePoint{NormalStressKPa: s, ShearStrengthKPa: cohesion + s*tanPhi}
	}
	return out
}
