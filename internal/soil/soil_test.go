package soil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametersForDryPresets(t *testing.T) {
	tests := []struct {
		category Category
		want     Parameters
	}{
		{Sand, Parameters{Cohesion: 0, FrictionAngleDeg: 35, PeakDisplacementMm: 2.0, PostPeakFactor: 0.10}},
		{Clay, Parameters{Cohesion: 25, FrictionAngleDeg: 20, PeakDisplacementMm: 4.0, PostPeakFactor: 0.30}},
		{Silt, Parameters{Cohesion: 10, FrictionAngleDeg: 28, PeakDisplacementMm: 3.0, PostPeakFactor: 0.20}},
		{SandyClay, Parameters{Cohesion: 15, FrictionAngleDeg: 30, PeakDisplacementMm: 2.5, PostPeakFactor: 0.15}},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			got, err := ParametersFor(tt.category, Dry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParametersForSaturatedStretchesPeak(t *testing.T) {
	for _, c := range Categories() {
		dry, err := ParametersFor(c, Dry)
		require.NoError(t, err)
		sat, err := ParametersFor(c, Saturated)
		require.NoError(t, err)

		assert.InDelta(t, dry.PeakDisplacementMm*1.2, sat.PeakDisplacementMm, 1e-12, c.String())
		assert.Equal(t, dry.Cohesion, sat.Cohesion)
		assert.Equal(t, dry.FrictionAngleDeg, sat.FrictionAngleDeg)
	}
}

func TestParametersForRejectsUnknown(t *testing.T) {
	_, err := ParametersFor(Category(42), Dry)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = ParametersFor(Sand, Saturation(7))
	assert.ErrorIs(t, err, ErrInvalidSaturation)
}

func TestCategoriesKeepTableOrder(t *testing.T) {
	assert.Equal(t, []Category{Sand, Clay, Silt, SandyClay}, Categories())
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"sand":        Sand,
		"CLAY":        Clay,
		" silt ":      Silt,
		"sandy-clay":  SandyClay,
		"sandy_clay":  SandyClay,
		"clayeySand":  SandyClay,
		"clayey sand": SandyClay,
	}
	for in, want := range tests {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("gravel")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestParseSaturation(t *testing.T) {
	s, err := ParseSaturation("Saturated")
	require.NoError(t, err)
	assert.Equal(t, Saturated, s)

	s, err = ParseSaturation("dry")
	require.NoError(t, err)
	assert.Equal(t, Dry, s)

	_, err = ParseSaturation("damp")
	assert.ErrorIs(t, err, ErrInvalidSaturation)
}

func TestDilative(t *testing.T) {
	assert.True(t, Sand.IsDilative())
	assert.False(t, Clay.IsDilative())
	assert.False(t, Silt.IsDilative())
	assert.False(t, SandyClay.IsDilative())
	assert.False(t, Category(-1).Valid())
}
