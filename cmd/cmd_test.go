package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goshear/internal/config"
	"github.com/alexiusacademia/goshear/internal/constitutive"
	"github.com/alexiusacademia/goshear/internal/metrics"
	"github.com/alexiusacademia/goshear/internal/report"
	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/series"
	"github.com/alexiusacademia/goshear/internal/soil"
)

func newSoilCommand(t *testing.T, args ...string) (*cobra.Command, *soilFlags) {
	t.Helper()
	f := &soilFlags{}
	c := &cobra.Command{Use: "test"}
	f.bind(c)
	require.NoError(t, c.Flags().Parse(args))
	return c, f
}

func TestSoilFlagsResolve(t *testing.T) {
	t.Run("preset", func(t *testing.T) {
		c, f := newSoilCommand(t, "--soil", "silt")
		p, err := f.resolve(c)
		require.NoError(t, err)

		preset, err := soil.PresetFor(soil.Silt)
		require.NoError(t, err)
		assert.Equal(t, soil.Silt, p.Category)
		assert.Equal(t, soil.Dry, p.Saturation)
		assert.Equal(t, preset.Cohesion, p.Cohesion)
		assert.Equal(t, preset.FrictionAngleDeg, p.FrictionAngleDeg)
	})

	t.Run("overrides", func(t *testing.T) {
		c, f := newSoilCommand(t, "-s", "clay", "--saturation", "saturated", "-c", "0", "-f", "22")
		p, err := f.resolve(c)
		require.NoError(t, err)
		assert.Equal(t, soil.Saturated, p.Saturation)
		assert.Equal(t, 0.0, p.Cohesion)
		assert.Equal(t, 22.0, p.FrictionAngleDeg)
	})

	t.Run("unknown soil", func(t *testing.T) {
		c, f := newSoilCommand(t, "--soil", "gravel")
		_, err := f.resolve(c)
		assert.ErrorIs(t, err, soil.ErrInvalidCategory)
	})
}

func TestShearOnceFillsSharedEnvelope(t *testing.T) {
	settings = config.Defaults()

	params, err := runner.PresetSoil(soil.Sand, soil.Dry)
	require.NoError(t, err)

	env := series.NewEnvelope()
	collector := metrics.New()
	for _, sigma := range []float64{100, 200, 300} {
		cfg := runner.Config{Soil: params, Test: runner.DefaultTest(sigma, 1.2)}
		require.NoError(t, shearOnce(cfg, env, collector))
	}
	require.Equal(t, 3, env.Len())

	agg := report.NewAggregator(params.Cohesion, params.FrictionAngleDeg, env.Points())
	fit, err := agg.Fit()
	require.NoError(t, err)
	assert.Equal(t, 3, fit.N)
	assert.Greater(t, fit.RSquared, 0.99)
	assert.Equal(t, 3, distinctStresses(env.Points()))
}

func TestEffectiveStrengthMatchesSaturatedStrength(t *testing.T) {
	p := runner.SoilParameters{Category: soil.Clay, Cohesion: 25, FrictionAngleDeg: 20, Saturation: soil.Saturated}
	c, phi := effectiveStrength(p)

	line := report.EnvelopeLine(c, phi, []float64{0, 200})
	assert.InDelta(t, constitutive.ShearStrength(25, 20, 0, soil.Saturated), line[0].ShearStrengthKPa, 1e-9)
	assert.InDelta(t, constitutive.ShearStrength(25, 20, 200, soil.Saturated), line[1].ShearStrengthKPa, 1e-9)

	p.Saturation = soil.Dry
	c, phi = effectiveStrength(p)
	assert.Equal(t, 25.0, c)
	assert.Equal(t, 20.0, phi)
}
