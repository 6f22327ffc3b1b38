package diagram

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alexiusacademia/goshear/internal/series"
)

// Chart limits
const (
	MinYAxis      = 100.0 // kPa
	YAxisHeadroom = 1.5
	MinXAxis      = 12.0 // mm
)

var (
	curveColor    = color.RGBA{R: 0, G: 87, B: 146, A: 255}
	envelopeColor = color.RGBA{R: 231, G: 76, B: 60, A: 255}
)

// YAxisMax returns the fixed upper limit of the shear-stress axis
func YAxisMax(peakStrength float64) float64 {
	return math.Max(peakStrength*YAxisHeadroom, MinYAxis)
}

// ExportShearCurve exports the shear stress vs horizontal displacement curve
func ExportShearCurve(samples []series.SamplePoint, title string, peakStrength float64, filename string) error {
	if len(samples) == 0 {
		return errors.New("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Horizontal displacement (mm)"
	p.Y.Label.Text = "Shear stress (kPa)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.DisplacementMm, Y: s.ShearStressKPa}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = curveColor
	p.Add(line)
	p.Legend.Add("Shear stress (kPa)", line)
	p.Legend.Top = true

	p.X.Min = 0
	p.X.Max = math.Max(MinXAxis, samples[len(samples)-1].DisplacementMm+2)
	p.Y.Min = 0
	p.Y.Max = YAxisMax(peakStrength)
	p.Add(plotter.NewGrid())

	return save(p, 8*vg.Inch, 5*vg.Inch, filename)
}

// ExportEnvelope exports the Mohr-Coulomb envelope: measured failure points
// as markers and the envelope line through line
func ExportEnvelope(measured, line []series.FailurePoint, filename string) error {
	if len(measured) == 0 && len(line) == 0 {
		return errors.New("no envelope points to plot")
	}

	p := plot.New()
	p.Title.Text = "Mohr-Coulomb Failure Envelope"
	p.X.Label.Text = "Normal stress σ (kPa)"
	p.Y.Label.Text = "Shear strength τ (kPa)"

	if len(line) > 0 {
		l, err := plotter.NewLine(toXYs(line))
		if err != nil {
			return err
		}
		l.LineStyle.Width = vg.Points(2.5)
		l.LineStyle.Color = envelopeColor
		p.Add(l)
		p.Legend.Add("Failure envelope", l)
	}

	if len(measured) > 0 {
		sc, err := plotter.NewScatter(toXYs(measured))
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = curveColor
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("Measured peak", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Min = 0
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	return save(p, 7*vg.Inch, 5*vg.Inch, filename)
}

func toXYs(points []series.FailurePoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.NormalStressKPa, Y: pt.ShearStrengthKPa}
	}
	return xys
}

// save writes p in the format named by the file extension, defaulting to png
func save(p *plot.Plot, width, height vg.Length, filename string) error {
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	switch filepath.Ext(filename) {
	case ".png", ".svg", ".pdf":
		return p.Save(width, height, filename)
	default:
		return p.Save(width, height, filename+".png")
	}
}
