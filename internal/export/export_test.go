package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alexiusacademia/goshear/internal/series"
)

var (
	samples = []series.SamplePoint{
		{DisplacementMm: 0.02, ShearStressKPa: 2.1, VerticalMm: 0.001, ShearForceKN: 0.00756},
		{DisplacementMm: 0.04, ShearStressKPa: 4.1, VerticalMm: 0.002, ShearForceKN: 0.01476},
	}
	envelope = []series.FailurePoint{
		{NormalStressKPa: 100, ShearStrengthKPa: 77.0, PeakDisplacementMm: 10, RunID: "run-1"},
	}
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteXLSX(path, samples, envelope))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SamplesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Displacement (mm)", rows[0][0])
	assert.Equal(t, "0.04", rows[2][0])

	rows, err = f.GetRows(EnvelopeSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"100", "77", "10", "run-1"}, rows[1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSamplesCSV(&buf, samples))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0.0200,2.1000,0.0010,0.0076", lines[1])

	buf.Reset()
	require.NoError(t, WriteEnvelopeCSV(&buf, envelope))
	assert.Contains(t, buf.String(), "100.0000,77.0000,10.0000,run-1")
}
