package constitutive

import (
	"math"

	"github.com/alexiusacademia/goshear/internal/soil"
)

// Model constants
const (
	// SaturatedStrengthFactor reduces the Mohr-Coulomb strength of saturated samples
	SaturatedStrengthFactor = 0.70

	// PrePeakRate is the exponent rate of the saturating pre-peak branch
	PrePeakRate = 3.0

	// DilationRate is the vertical rise per mm of shear for a dilative soil at φ = 35°
	DilationRate = 0.05
	// ReferenceFrictionDeg scales DilationRate with the friction angle
	ReferenceFrictionDeg = 35.0
	// PostPeakContractionRate is the settlement per mm of a dilative soil after peak
	PostPeakContractionRate = 0.02
	// ContractionRate is the settlement per mm of a contractive soil
	ContractionRate = 0.03
)

// Phase of the stress-displacement curve
type Phase int

const (
	PrePeak Phase = iota
	PostPeak
)

func (p Phase) String() string {
	if p == PostPeak {
		return "post-peak"
	}
	return "pre-peak"
}

// Curve holds what is needed to trace shear stress against displacement
type Curve struct {
	PeakStrength       float64 // τp (kPa)
	PeakDisplacementMm float64 // dp (mm)
	MaxDisplacementMm  float64 // end of test (mm)
	PostPeakFactor     float64 // r
	Hardening          bool    // sand hardens, others soften
}

// Inputs is the full set of soil and test parameters for one evaluation
type Inputs struct {
	Category           soil.Category
	Saturation         soil.Saturation
	Cohesion           float64 // kPa
	FrictionAngleDeg   float64
	NormalStressKPa    float64
	PeakDisplacementMm float64
	PostPeakFactor     float64
	MaxDisplacementMm  float64
	AreaCm2            float64
}

// Response is the mechanical state of the sample at one displacement
type Response struct {
	ShearStressKPa float64
	VerticalMm     float64 // positive = dilation
	ShearForceKN   float64
	Phase          Phase
}

// ShearStrength returns the Mohr-Coulomb strength τ = c + σ·tan(φ),
// reduced by SaturatedStrengthFactor for saturated samples.
func ShearStrength(cohesion, frictionAngleDeg, normalStress float64, s soil.Saturation) float64 {
	strength := cohesion + normalStress*math.Tan(frictionAngleDeg*math.Pi/180)
	if s == soil.Saturated {
		strength *= SaturatedStrengthFactor
	}
	return strength
}

// ShearStressAt traces the curve at displacement d (mm).
//
// Up to the peak the branch is τp·(1−e^(−3x))/(1−e^(−3)), x = d/dp, which
// reaches τp exactly at dp. Past the peak, progress toward the end of the
// test is clamped to [0,1] and the stress hardens or softens linearly by
// PostPeakFactor.
func ShearStressAt(d float64, c Curve) float64 {
	if d <= 0 {
		return 0
	}
	if c.PeakDisplacementMm <= 0 {
		return c.PeakStrength
	}

	if d <= c.PeakDisplacementMm {
		x := d / c.PeakDisplacementMm
		return c.PeakStrength * (1 - math.Exp(-PrePeakRate*x)) / (1 - math.Exp(-PrePeakRate))
	}

	progress := 0.0
	if span := c.MaxDisplacementMm - c.PeakDisplacementMm; span > 0 {
		progress = clamp((d-c.PeakDisplacementMm)/span, 0, 1)
	}
	if c.Hardening {
		return c.PeakStrength * (1 + c.PostPeakFactor*progress)
	}
	return c.PeakStrength * (1 - c.PostPeakFactor*progress)
}

// PeakUpTo returns the largest stress on c over [0, d] and the displacement
// where it first occurs. Each branch of the curve is monotonic, so the
// maximum sits at d or, for a softening soil past the peak, at dp.
func PeakUpTo(d float64, c Curve) (stressKPa, atMm float64) {
	if d <= 0 {
		return 0, 0
	}
	if d <= c.PeakDisplacementMm || c.Hardening || c.PeakDisplacementMm <= 0 {
		return ShearStressAt(d, c), d
	}
	return ShearStressAt(c.PeakDisplacementMm, c), c.PeakDisplacementMm
}

// VerticalStrainAt returns the vertical movement (mm) of the box lid.
// Dilative soils rise at DilationRate·φ/35 until the peak and then settle
// slowly; contractive soils settle at a constant rate.
func VerticalStrainAt(d float64, category soil.Category, peakDisplacementMm, frictionAngleDeg float64) float64 {
	if d <= 0 {
		return 0
	}
	if !category.IsDilative() {
		return -ContractionRate * d
	}

	rate := DilationRate * frictionAngleDeg / ReferenceFrictionDeg
	if d <= peakDisplacementMm {
		return rate * d
	}
	return rate*peakDisplacementMm - PostPeakContractionRate*(d-peakDisplacementMm)
}

// ShearForceKN converts a stress (kPa) on an area (cm²) to a force (kN)
func ShearForceKN(stressKPa, areaCm2 float64) float64 {
	return stressKPa * areaCm2 * 1e-4
}

// CurveFor builds the stress curve of a parameter set
func CurveFor(in Inputs) Curve {
	return Curve{
		PeakStrength:       ShearStrength(in.Cohesion, in.FrictionAngleDeg, in.NormalStressKPa, in.Saturation),
		PeakDisplacementMm: in.PeakDisplacementMm,
		MaxDisplacementMm:  in.MaxDisplacementMm,
		PostPeakFactor:     in.PostPeakFactor,
		Hardening:          in.Category.IsDilative(),
	}
}

// Evaluate computes the full response at displacement d
func Evaluate(d float64, in Inputs) Response {
	stress := ShearStressAt(d, CurveFor(in))
	phase := PrePeak
	if d > in.PeakDisplacementMm {
		phase = PostPeak
	}
	return Response{
		ShearStressKPa: stress,
		VerticalMm:     VerticalStrainAt(d, in.Category, in.PeakDisplacementMm, in.FrictionAngleDeg),
		ShearForceKN:   ShearForceKN(stress, in.AreaCm2),
		Phase:          phase,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
