package diagram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goshear/internal/series"
)

func TestWeightCount(t *testing.T) {
	tests := map[float64]int{0: 0, 49: 0, 50: 1, 199: 3, 250: 5, 1000: 5}
	for sigma, want := range tests {
		assert.Equal(t, want, WeightCount(sigma), "σ=%g", sigma)
	}
}

func TestYAxisMax(t *testing.T) {
	assert.Equal(t, 100.0, YAxisMax(20))
	assert.InDelta(t, 150.0, YAxisMax(100), 1e-12)
}

func TestDrawApparatusShiftsUpperHalf(t *testing.T) {
	data := ApparatusData{
		Soil: "sand", Saturation: "dry", Friction: 35,
		NormalStress: 150, MaxDisplacement: 10, Phase: "running",
	}

	upperLine := func(s string) string {
		for _, l := range strings.Split(s, "\n") {
			if strings.Contains(l, "┌") {
				return l
			}
		}
		return ""
	}

	atRest := upperLine(DrawApparatus(data))
	data.Displacement = 10
	data.ShearStress = 70.02
	drawn := DrawApparatus(data)
	shifted := upperLine(drawn)

	assert.Equal(t, strings.Index(atRest, "┌")+maxOffset, strings.Index(shifted, "┌"))
	assert.Equal(t, 3, strings.Count(drawn, "[████]"))
	assert.Contains(t, drawn, "τ = 70.02 kPa")
	assert.Contains(t, drawn, "σ = 150 kPa")
}

func TestShearCurveASCII(t *testing.T) {
	assert.Contains(t, ShearCurveASCII(nil, 0, 0), "no samples")

	out := ShearCurveASCII([]float64{0, 10, 20, 30, 28, 26}, 0, 10)
	assert.Contains(t, out, "displacement 0.00 → 10.00 mm")
	assert.Greater(t, len(strings.Split(out, "\n")), 10)
}

func TestDrawSummaryBox(t *testing.T) {
	out := DrawSummaryBox("RESULT", []string{"τf = 70.02 kPa", "c = 0"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	width := len([]rune(lines[0]))
	for _, l := range lines {
		assert.Equal(t, width, len([]rune(l)), l)
	}
}

func TestExportShearCurveAndEnvelope(t *testing.T) {
	dir := t.TempDir()
	samples := []series.SamplePoint{
		{DisplacementMm: 0.5, ShearStressKPa: 30},
		{DisplacementMm: 1.0, ShearStressKPa: 55},
		{DisplacementMm: 2.0, ShearStressKPa: 70},
	}

	curve := filepath.Join(dir, "plots", "curve.svg")
	require.NoError(t, ExportShearCurve(samples, "Sand", 70, curve))
	assert.FileExists(t, curve)

	env := filepath.Join(dir, "envelope")
	measured := []series.FailurePoint{{NormalStressKPa: 100, ShearStrengthKPa: 70}, {NormalStressKPa: 200, ShearStrengthKPa: 140}}
	line := []series.FailurePoint{{NormalStressKPa: 0, ShearStrengthKPa: 0}, {NormalStressKPa: 400, ShearStrengthKPa: 280}}
	require.NoError(t, ExportEnvelope(measured, line, env))
	info, err := os.Stat(env + ".png")
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, ExportShearCurve(nil, "x", 1, filepath.Join(dir, "x.png")))
	assert.Error(t, ExportEnvelope(nil, nil, filepath.Join(dir, "y.png")))
}
