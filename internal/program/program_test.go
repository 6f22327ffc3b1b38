package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goshear/internal/soil"
)

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeProgram(t, `{
		"name": "Clay envelope",
		"soil": "clay",
		"saturation": "saturated",
		"cohesion": 30,
		"normal_stresses_kpa": [100, 200, 300],
		"speed_mm_per_min": 0.5
	}`)

	p, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Clay envelope", p.Name)

	configs, err := p.Configs()
	require.NoError(t, err)
	require.Len(t, configs, 3)
	for i, sigma := range []float64{100, 200, 300} {
		c := configs[i]
		assert.Equal(t, soil.Clay, c.Soil.Category)
		assert.Equal(t, soil.Saturated, c.Soil.Saturation)
		assert.Equal(t, 30.0, c.Soil.Cohesion)
		assert.Equal(t, 20.0, c.Soil.FrictionAngleDeg, "preset kept")
		assert.Equal(t, sigma, c.Test.NormalStressKPa)
		assert.Equal(t, 0.5, c.Test.SpeedMmPerMin)
		assert.Equal(t, 36.0, c.Test.SampleAreaCm2)
		assert.Equal(t, 10.0, c.Test.MaxDisplacementMm)
	}
}

func TestDefaultsApplied(t *testing.T) {
	p := &Program{Soil: "sand", NormalStresses: []float64{50}}
	configs, err := p.Configs()
	require.NoError(t, err)
	assert.Equal(t, DefaultSpeedMmPerMin, configs[0].Test.SpeedMmPerMin)
	assert.Equal(t, soil.Dry, configs[0].Soil.Saturation)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]*Program{
		"no stresses":     {Soil: "sand"},
		"unknown soil":    {Soil: "peat", NormalStresses: []float64{100}},
		"bad saturation":  {Soil: "sand", Saturation: "damp", NormalStresses: []float64{100}},
		"negative stress": {Soil: "sand", NormalStresses: []float64{100, -5}},
		"short max":       {Soil: "clay", NormalStresses: []float64{100}, MaxDisplacementMm: 3},
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			err := p.Validate()
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeProgram(t, `{"soil": `))
	assert.Error(t, err)
}
