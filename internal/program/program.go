package program

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/soil"
)

// Program is a series of direct-shear tests on one soil at several normal
// stresses, as used to build a Mohr-Coulomb envelope.
type Program struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Soil
	Soil       string `json:"soil"`                 // sand, clay, silt, sandy-clay
	Saturation string `json:"saturation,omitempty"` // dry (default) or saturated

	// Overrides of the category preset (optional)
	Cohesion         *float64 `json:"cohesion,omitempty"`           // kPa
	FrictionAngleDeg *float64 `json:"friction_angle_deg,omitempty"` // degrees

	// Loading
	NormalStresses    []float64 `json:"normal_stresses_kpa"`
	SpeedMmPerMin     float64   `json:"speed_mm_per_min,omitempty"`
	MaxDisplacementMm float64   `json:"max_displacement_mm,omitempty"`
	SampleAreaCm2     float64   `json:"sample_area_cm2,omitempty"`
}

// Default loading applied when a program leaves a field out
const DefaultSpeedMmPerMin = 1.2

// ValidationError represents an invalid program definition
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// LoadFromFile loads a test program from a JSON file
func LoadFromFile(filepath string) (*Program, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks the program and every test it expands to
func (p *Program) Validate() error {
	if len(p.NormalStresses) == 0 {
		return &ValidationError{"program must list at least one normal stress"}
	}
	_, err := p.Configs()
	return err
}

// Configs expands the program to one runner configuration per normal stress
func (p *Program) Configs() ([]runner.Config, error) {
	category, err := soil.ParseCategory(p.Soil)
	if err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	saturation, err := soil.ParseSaturation(p.Saturation)
	if err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}

	base, err := runner.PresetSoil(category, saturation)
	if err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if p.Cohesion != nil {
		base.Cohesion = *p.Cohesion
	}
	if p.FrictionAngleDeg != nil {
		base.FrictionAngleDeg = *p.FrictionAngleDeg
	}

	speed := p.SpeedMmPerMin
	if speed == 0 {
		speed = DefaultSpeedMmPerMin
	}

	configs := make([]runner.Config, 0, len(p.NormalStresses))
	for i, sigma := range p.NormalStresses {
		test := runner.DefaultTest(sigma, speed)
		if p.MaxDisplacementMm != 0 {
			test.MaxDisplacementMm = p.MaxDisplacementMm
		}
		if p.SampleAreaCm2 != 0 {
			test.SampleAreaCm2 = p.SampleAreaCm2
		}
		cfg := runner.Config{Soil: base, Test: test}
		if err := cfg.Validate(); err != nil {
			return nil, &ValidationError{msg: fmt.Sprintf("test %d (σ=%g kPa): %v", i+1, sigma, err)}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
