package soil

import (
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidCategory is returned for a soil category outside the enumeration
var ErrInvalidCategory = errors.New("soil: invalid category")

// ErrInvalidSaturation is returned for a saturation state outside the enumeration
var ErrInvalidSaturation = errors.New("soil: invalid saturation")

// Category identifies a soil family tested in the shear box
type Category int

const (
	Sand Category = iota
	Clay
	Silt
	SandyClay
)

// Saturation describes the pore-water condition of the sample
type Saturation int

const (
	Dry Saturation = iota
	Saturated
)

// Phase-transition constants
const (
	// SaturatedPeakFactor stretches the peak displacement of saturated samples
	SaturatedPeakFactor = 1.2
)

// Preset holds the default parameters of a soil category
type Preset struct {
	Name               string
	Cohesion           float64 // c (kPa)
	FrictionAngleDeg   float64 // φ (degrees)
	PeakDisplacementMm float64 // displacement at peak resistance (mm)
	PostPeakFactor     float64 // hardening (dilative) or softening (contractive) factor
	Dilative           bool
}

// Parameters is a preset resolved for a saturation state
type Parameters struct {
	Cohesion           float64
	FrictionAngleDeg   float64
	PeakDisplacementMm float64
	PostPeakFactor     float64
}

var presets = newPresetTable()

func newPresetTable() *orderedmap.OrderedMap[Category, Preset] {
	t := orderedmap.New[Category, Preset]()
	t.Set(Sand, Preset{Name: "sand", Cohesion: 0, FrictionAngleDeg: 35, PeakDisplacementMm: 2.0, PostPeakFactor: 0.10, Dilative: true})
	t.Set(Clay, Preset{Name: "clay", Cohesion: 25, FrictionAngleDeg: 20, PeakDisplacementMm: 4.0, PostPeakFactor: 0.30})
	t.Set(Silt, Preset{Name: "silt", Cohesion: 10, FrictionAngleDeg: 28, PeakDisplacementMm: 3.0, PostPeakFactor: 0.20})
	t.Set(SandyClay, Preset{Name: "sandy-clay", Cohesion: 15, FrictionAngleDeg: 30, PeakDisplacementMm: 2.5, PostPeakFactor: 0.15})
	return t
}

// Valid reports whether c is one of the enumerated categories
func (c Category) Valid() bool {
	_, ok := presets.Get(c)
	return ok
}

// IsDilative reports whether the category dilates and hardens after peak
func (c Category) IsDilative() bool {
	p, ok := presets.Get(c)
	return ok && p.Dilative
}

func (c Category) String() string {
	if p, ok := presets.Get(c); ok {
		return p.Name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether s is one of the enumerated saturation states
func (s Saturation) Valid() bool {
	return s == Dry || s == Saturated
}

func (s Saturation) String() string {
	switch s {
	case Dry:
		return "dry"
	case Saturated:
		return "saturated"
	}
	return fmt.Sprintf("Saturation(%d)", int(s))
}

// PresetFor returns the raw table entry for a category
func PresetFor(c Category) (Preset, error) {
	p, ok := presets.Get(c)
	if !ok {
		return Preset{}, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return p, nil
}

// ParametersFor resolves the default strength and phase-transition
// parameters of a category for the given saturation state.
func ParametersFor(c Category, s Saturation) (Parameters, error) {
	p, err := PresetFor(c)
	if err != nil {
		return Parameters{}, err
	}
	if !s.Valid() {
		return Parameters{}, fmt.Errorf("%w: %d", ErrInvalidSaturation, int(s))
	}

	peak := p.PeakDisplacementMm
	if s == Saturated {
		peak *= SaturatedPeakFactor
	}

	return Parameters{
		Cohesion:           p.Cohesion,
		FrictionAngleDeg:   p.FrictionAngleDeg,
		PeakDisplacementMm: peak,
		PostPeakFactor:     p.PostPeakFactor,
	}, nil
}

// Categories lists the categories in table order
func Categories() []Category {
	out := make([]Category, 0, presets.Len())
	for pair := presets.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// ParseCategory accepts the preset name, case-insensitively.
// "clayey-sand" and "sandclay" are accepted as aliases of sandy-clay.
func ParseCategory(name string) (Category, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	switch n {
	case "clayey-sand", "clayeysand", "sandclay", "sandyclay":
		return SandyClay, nil
	}
	for pair := presets.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Name == n {
			return pair.Key, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
}

// ParseSaturation accepts "dry" or "saturated"
func ParseSaturation(name string) (Saturation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dry", "":
		return Dry, nil
	case "saturated", "sat", "wet":
		return Saturated, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSaturation, name)
}
