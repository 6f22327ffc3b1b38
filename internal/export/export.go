package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/alexiusacademia/goshear/internal/series"
)

// Sheet names of the workbook
const (
	SamplesSheet  = "Samples"
	EnvelopeSheet = "Envelope"
)

var (
	sampleHeader   = []string{"Displacement (mm)", "Shear stress (kPa)", "Vertical (mm)", "Shear force (kN)"}
	envelopeHeader = []string{"Normal stress (kPa)", "Shear strength (kPa)", "Peak displacement (mm)", "Run ID"}
)

// WriteXLSX saves samples and envelope points to an xlsx workbook
func WriteXLSX(path string, samples []series.SamplePoint, envelope []series.FailurePoint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SamplesSheet); err != nil {
		return err
	}
	if err := writeRow(f, SamplesSheet, 1, toAny(sampleHeader)); err != nil {
		return err
	}
	for i, s := range samples {
		row := []any{s.DisplacementMm, s.ShearStressKPa, s.VerticalMm, s.ShearForceKN}
		if err := writeRow(f, SamplesSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(EnvelopeSheet); err != nil {
		return err
	}
	if err := writeRow(f, EnvelopeSheet, 1, toAny(envelopeHeader)); err != nil {
		return err
	}
	for i, p := range envelope {
		row := []any{p.NormalStressKPa, p.ShearStrengthKPa, p.PeakDisplacementMm, p.RunID}
		if err := writeRow(f, EnvelopeSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteSamplesCSV writes samples as CSV with a header row
func WriteSamplesCSV(w io.Writer, samples []series.SamplePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{ff(s.DisplacementMm), ff(s.ShearStressKPa), ff(s.VerticalMm), ff(s.ShearForceKN)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEnvelopeCSV writes failure points as CSV with a header row
func WriteEnvelopeCSV(w io.Writer, points []series.FailurePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(envelopeHeader); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{ff(p.NormalStressKPa), ff(p.ShearStrengthKPa), ff(p.PeakDisplacementMm), p.RunID}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
