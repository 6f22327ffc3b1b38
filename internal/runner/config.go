package runner

import (
	"math"

	"github.com/alexiusacademia/goshear/internal/constitutive"
	"github.com/alexiusacademia/goshear/internal/soil"
)

// Apparatus defaults
const (
	DefaultSampleAreaCm2     = 36.0 // 60 x 60 mm shear box
	DefaultMaxDisplacementMm = 10.0
	DefaultTimeScale         = 60.0 // simulated seconds per driven second
)

// SoilParameters describes the sample. Cohesion and friction angle start
// from the category preset and may be overridden.
type SoilParameters struct {
	Category         soil.Category   `json:"category"`
	Cohesion         float64         `json:"cohesion"`           // kPa
	FrictionAngleDeg float64         `json:"friction_angle_deg"` // degrees
	Saturation       soil.Saturation `json:"saturation"`
}

// TestConfig describes the loading of one test
type TestConfig struct {
	NormalStressKPa   float64 `json:"normal_stress_kpa"`
	SpeedMmPerMin     float64 `json:"speed_mm_per_min"`
	SampleAreaCm2     float64 `json:"sample_area_cm2"`
	MaxDisplacementMm float64 `json:"max_displacement_mm"`
	// TimeScale multiplies driven time; 60 runs one simulated minute per second
	TimeScale float64 `json:"time_scale"`
}

// Config is the full configuration accepted by Configure
type Config struct {
	Soil SoilParameters
	Test TestConfig
}

// PresetSoil returns the default parameters of a category
func PresetSoil(c soil.Category, s soil.Saturation) (SoilParameters, error) {
	p, err := soil.ParametersFor(c, s)
	if err != nil {
		return SoilParameters{}, err
	}
	return SoilParameters{
		Category:         c,
		Cohesion:         p.Cohesion,
		FrictionAngleDeg: p.FrictionAngleDeg,
		Saturation:       s,
	}, nil
}

// DefaultTest returns the apparatus defaults for a normal stress and speed
func DefaultTest(normalStressKPa, speedMmPerMin float64) TestConfig {
	return TestConfig{
		NormalStressKPa:   normalStressKPa,
		SpeedMmPerMin:     speedMmPerMin,
		SampleAreaCm2:     DefaultSampleAreaCm2,
		MaxDisplacementMm: DefaultMaxDisplacementMm,
		TimeScale:         DefaultTimeScale,
	}
}

// Validate checks the ranges of every field
func (c Config) Validate() error {
	_, err := c.inputs()
	return err
}

// inputs validates the config and resolves it for the constitutive engine
func (c Config) inputs() (constitutive.Inputs, error) {
	s, t := c.Soil, c.Test

	params, err := soil.ParametersFor(s.Category, s.Saturation)
	if err != nil {
		return constitutive.Inputs{}, &ConfigError{Field: "category", Value: float64(s.Category), Reason: err.Error()}
	}

	checks := []struct {
		field  string
		value  float64
		ok     bool
		reason string
	}{
		{"cohesion", s.Cohesion, s.Cohesion >= 0, "must be >= 0 kPa"},
		{"friction_angle_deg", s.FrictionAngleDeg, s.FrictionAngleDeg >= 0 && s.FrictionAngleDeg < 90, "must be in [0, 90) degrees"},
		{"normal_stress_kpa", t.NormalStressKPa, t.NormalStressKPa > 0, "must be > 0 kPa"},
		{"speed_mm_per_min", t.SpeedMmPerMin, t.SpeedMmPerMin > 0, "must be > 0 mm/min"},
		{"sample_area_cm2", t.SampleAreaCm2, t.SampleAreaCm2 > 0, "must be > 0 cm²"},
		{"max_displacement_mm", t.MaxDisplacementMm, t.MaxDisplacementMm > 0, "must be > 0 mm"},
		{"time_scale", t.TimeScale, t.TimeScale > 0, "must be > 0"},
		{"max_displacement_mm", t.MaxDisplacementMm, params.PeakDisplacementMm < t.MaxDisplacementMm,
			"must exceed the peak displacement of the soil"},
	}
	for _, ck := range checks {
		if !ck.ok || math.IsNaN(ck.value) || math.IsInf(ck.value, 0) {
			return constitutive.Inputs{}, &ConfigError{Field: ck.field, Value: ck.value, Reason: ck.reason}
		}
	}

	return constitutive.Inputs{
		Category:           s.Category,
		Saturation:         s.Saturation,
		Cohesion:           s.Cohesion,
		FrictionAngleDeg:   s.FrictionAngleDeg,
		NormalStressKPa:    t.NormalStressKPa,
		PeakDisplacementMm: params.PeakDisplacementMm,
		PostPeakFactor:     params.PostPeakFactor,
		MaxDisplacementMm:  t.MaxDisplacementMm,
		AreaCm2:            t.SampleAreaCm2,
	}, nil
}
