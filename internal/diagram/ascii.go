package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// ApparatusData holds what is needed to draw the shear box
type ApparatusData struct {
	Soil       string
	Saturation string
	Cohesion   float64 // kPa
	Friction   float64 // degrees

	NormalStress    float64 // σ (kPa)
	Displacement    float64 // mm
	MaxDisplacement float64 // mm
	ShearStress     float64 // τ (kPa)
	Vertical        float64 // mm, positive = dilation
	Phase           string
}

// Plate layout
const (
	boxWidth     = 32 // characters of each box half
	maxOffset    = 10 // characters of travel at full displacement
	kPaPerWeight = 50
	maxWeights   = 5
)

// WeightCount is the number of hanger weights drawn for a normal stress
func WeightCount(normalStress float64) int {
	n := int(math.Floor(normalStress / kPaPerWeight))
	return max(0, min(n, maxWeights))
}

// DrawApparatus creates an ASCII view of the shear box with the upper
// half shifted by the current displacement
func DrawApparatus(data ApparatusData) string {
	var sb strings.Builder

	offset := 0
	if data.MaxDisplacement > 0 {
		offset = int(math.Round(data.Displacement / data.MaxDisplacement * maxOffset))
		offset = max(0, min(offset, maxOffset))
	}
	pad := strings.Repeat(" ", offset)
	center := strings.Repeat(" ", offset+boxWidth/2-3)

	sb.WriteString("\n")
	sb.WriteString("  DIRECT SHEAR APPARATUS\n")
	sb.WriteString("  ──────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Soil: %s (%s) | c = %.1f kPa | φ = %.1f°\n", data.Soil, data.Saturation, data.Cohesion, data.Friction))
	sb.WriteString(fmt.Sprintf("  Displacement: %.2f mm | Vertical: %+.3f mm | %s\n\n", data.Displacement, data.Vertical, data.Phase))

	// Hanger weights
	for i := 0; i < WeightCount(data.NormalStress); i++ {
		sb.WriteString(fmt.Sprintf("    %s[████]\n", center))
	}
	sb.WriteString(fmt.Sprintf("    %s  ││   σ = %.0f kPa\n", center, data.NormalStress))
	sb.WriteString(fmt.Sprintf("    %s  ▼▼\n", center))

	// Upper (moving) half
	sb.WriteString(fmt.Sprintf("    %s┌%s┐\n", pad, strings.Repeat("─", boxWidth)))
	sb.WriteString(fmt.Sprintf("    %s│%s│ ◀── τ = %.2f kPa\n", pad, fill(boxWidth), data.ShearStress))

	// Shear plane
	sb.WriteString(fmt.Sprintf("  ══%s══ shear plane\n", strings.Repeat("═", boxWidth+maxOffset)))

	// Lower (fixed) half
	sb.WriteString(fmt.Sprintf("    │%s│\n", fill(boxWidth)))
	sb.WriteString(fmt.Sprintf("    └%s┘\n", strings.Repeat("─", boxWidth)))
	sb.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("▀", boxWidth+2)))

	return sb.String()
}

func fill(n int) string {
	return strings.Repeat("░", n)
}

// ShearCurveASCII plots shear stress against sample index. Samples are
// evenly spaced in displacement at constant speed.
func ShearCurveASCII(stress []float64, fromMm, toMm float64) string {
	if len(stress) == 0 {
		return "  (no samples)\n"
	}
	graph := asciigraph.Plot(stress,
		asciigraph.Height(12),
		asciigraph.Width(60),
		asciigraph.LowerBound(0),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("τ (kPa) vs displacement %.2f → %.2f mm", fromMm, toMm)),
	)
	return graph + "\n"
}

// DrawSummaryBox creates a summary box for results
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	maxLen := len([]rune(title))
	for _, line := range lines {
		maxLen = max(maxLen, len([]rune(line)))
	}
	maxLen += 4

	border := strings.Repeat("═", maxLen)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", padRight(title, maxLen-4)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", padRight(line, maxLen-4)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))

	return sb.String()
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
