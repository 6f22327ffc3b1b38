package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goshear/internal/soil"
)

var soilsCmd = &cobra.Command{
	Use:   "soils",
	Short: "List the soil presets",
	Long: `List the default strength and phase-transition parameters of
each soil category.

Saturated samples reach their peak at 1.2 times the listed peak
displacement and keep 70% of the Mohr-Coulomb strength.`,
	RunE: runSoils,
}

func init() {
	rootCmd.AddCommand(soilsCmd)
}

func runSoils(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println("SOIL PRESETS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Soil\tc (kPa)\tφ (°)\tPeak (mm)\tPost-peak\tBehaviour\n")
	fmt.Fprintf(w, "  ────\t───────\t─────\t─────────\t─────────\t─────────\n")
	for _, c := range soil.Categories() {
		p, err := soil.PresetFor(c)
		if err != nil {
			return err
		}
		behaviour := "contractive, softens"
		if p.Dilative {
			behaviour = "dilative, hardens"
		}
		fmt.Fprintf(w, "  %s\t%.0f\t%.0f\t%.1f\t%.2f\t%s\n",
			p.Name, p.Cohesion, p.FrictionAngleDeg, p.PeakDisplacementMm, p.PostPeakFactor, behaviour)
	}
	w.Flush()
	fmt.Println()
	return nil
}
