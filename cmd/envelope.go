package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/goshear/internal/constitutive"
	"github.com/alexiusacademia/goshear/internal/diagram"
	"github.com/alexiusacademia/goshear/internal/driver"
	"github.com/alexiusacademia/goshear/internal/export"
	"github.com/alexiusacademia/goshear/internal/metrics"
	"github.com/alexiusacademia/goshear/internal/program"
	"github.com/alexiusacademia/goshear/internal/report"
	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/series"
	"github.com/alexiusacademia/goshear/internal/soil"
)

var (
	envSoil soilFlags

	envFileIn   string
	envNormals  []float64
	envSpeed    float64
	envMaxDisp  float64
	envArea     float64
	envOutput   string
	envXLSX     string
	envCSV      string
	envMetrics  bool
	envShowRuns bool
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Build the Mohr-Coulomb failure envelope from several tests",
	Long: `Run one direct shear test per normal stress on the same soil and
collect the failure points (σ, τf) on a shared envelope.

With three or more distinct normal stresses the envelope is fitted by
least squares, giving the measured cohesion c, friction angle φ and R².

A test program can be loaded from a JSON file:

  {
    "name": "Dry sand series",
    "soil": "sand",
    "saturation": "dry",
    "normal_stresses_kpa": [50, 100, 200, 300],
    "speed_mm_per_min": 1.2
  }

Examples:
  # Three tests on dry sand
  goshear envelope --soil sand --normal 100,200,300

  # Clay with custom strength, plot the envelope
  goshear envelope -s clay -c 25 -f 20 --normal 50,100,200,400 --output clay-envelope.png

  # From a program file, export the results
  goshear envelope --file series.json --xlsx series.xlsx`,
	RunE: runEnvelope,
}

func init() {
	rootCmd.AddCommand(envelopeCmd)

	envelopeCmd.Flags().StringVar(&envFileIn, "file", "", "Load the test program from a JSON file")

	// Sample flags
	envSoil.bind(envelopeCmd)

	// Loading flags
	envelopeCmd.Flags().Float64SliceVarP(&envNormals, "normal", "n", nil, "Normal stresses σ (kPa), comma separated")
	envelopeCmd.Flags().Float64Var(&envSpeed, "speed", program.DefaultSpeedMmPerMin, "Horizontal speed (mm/min)")
	envelopeCmd.Flags().Float64Var(&envMaxDisp, "max-displacement", runner.DefaultMaxDisplacementMm, "Maximum horizontal displacement (mm)")
	envelopeCmd.Flags().Float64Var(&envArea, "area", runner.DefaultSampleAreaCm2, "Sample area (cm²)")

	// Output flags
	envelopeCmd.Flags().BoolVar(&envShowRuns, "runs", false, "Print a line per completed run")
	envelopeCmd.Flags().StringVarP(&envOutput, "output", "o", "", "Save the envelope plot (png, svg, pdf)")
	envelopeCmd.Flags().StringVar(&envXLSX, "xlsx", "", "Export the failure points to an xlsx workbook")
	envelopeCmd.Flags().StringVar(&envCSV, "csv", "", "Export the failure points to a csv file")
	envelopeCmd.Flags().BoolVar(&envMetrics, "metrics", false, "Print run metrics in the Prometheus text format")

	envelopeCmd.MarkFlagsMutuallyExclusive("file", "normal")
	envelopeCmd.MarkFlagsOneRequired("file", "normal")
}

// envelopeConfigs builds one configuration per normal stress from the
// program file or the flags
func envelopeConfigs(cmd *cobra.Command) (string, []runner.Config, error) {
	if envFileIn != "" {
		p, err := program.LoadFromFile(envFileIn)
		if err != nil {
			return "", nil, fmt.Errorf("loading %s: %w", envFileIn, err)
		}
		configs, err := p.Configs()
		return p.Name, configs, err
	}

	params, err := envSoil.resolve(cmd)
	if err != nil {
		return "", nil, err
	}
	configs := make([]runner.Config, 0, len(envNormals))
	for _, sigma := range envNormals {
		test := runner.DefaultTest(sigma, envSpeed)
		test.MaxDisplacementMm = envMaxDisp
		test.SampleAreaCm2 = envArea
		configs = append(configs, runner.Config{Soil: params, Test: test})
	}
	return "", configs, nil
}

func runEnvelope(cmd *cobra.Command, args []string) error {
	name, configs, err := envelopeConfigs(cmd)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return errors.New("no normal stresses given")
	}

	env := series.NewEnvelope()
	collector := metrics.New()
	for i, cfg := range configs {
		cfg.Test.TimeScale = settings.TimeScale
		if err := shearOnce(cfg, env, collector); err != nil {
			return fmt.Errorf("test %d (σ=%g kPa): %w", i+1, cfg.Test.NormalStressKPa, err)
		}
	}

	base := configs[0].Soil
	agg := report.NewAggregator(base.Cohesion, base.FrictionAngleDeg, env.Points())
	fit, fitErr := agg.Fit()
	printEnvelopeResults(name, base, agg, env.Points(), fit, fitErr)

	var line []series.FailurePoint
	if fitErr == nil {
		line = report.EnvelopeLine(fit.Cohesion, fit.FrictionAngleDeg, report.DefaultEnvelopeStresses)
	} else {
		c, phi := effectiveStrength(base)
		line = report.EnvelopeLine(c, phi, report.DefaultEnvelopeStresses)
	}

	if envOutput != "" {
		if err := diagram.ExportEnvelope(env.Points(), line, envOutput); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		fmt.Printf("  Envelope saved to %s\n", envOutput)
	}
	if envXLSX != "" {
		if err := export.WriteXLSX(envXLSX, nil, env.Points()); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		fmt.Printf("  Workbook saved to %s\n", envXLSX)
	}
	if envCSV != "" {
		f, err := os.Create(envCSV)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteEnvelopeCSV(f, env.Points()); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		fmt.Printf("  Failure points saved to %s\n", envCSV)
	}
	if envOutput != "" || envXLSX != "" || envCSV != "" {
		fmt.Println()
	}

	if envMetrics {
		fmt.Println("METRICS:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		if err := collector.WriteText(os.Stdout); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

// shearOnce runs a single test to completion, adding its failure point to env
func shearOnce(cfg runner.Config, env *series.Envelope, collector *metrics.Collector) error {
	sched := driver.NewFixedStep(settings.TickRate)
	r := runner.New(
		runner.WithLogger(logger),
		runner.WithScheduler(sched),
		runner.WithRecorder(series.NewRecorder(settings.SampleCap, env)),
		runner.WithRejectHook(collector.ObserveRejection),
	)
	if err := r.Configure(cfg); err != nil {
		return err
	}
	defer collector.Watch(r)()

	if err := r.Start(); err != nil {
		return err
	}
	n, err := sched.Run(context.Background(), r)
	if err != nil {
		return err
	}
	logger.Debug("test finished", zap.String("run_id", r.RunID()), zap.Int("ticks", n))

	if envShowRuns {
		stress, at := r.Peak()
		fmt.Printf("  σ = %7.2f kPa  τf = %7.2f kPa  at %.3f mm  (%d ticks)\n",
			cfg.Test.NormalStressKPa, stress, at, n)
	}
	return nil
}

func printEnvelopeResults(name string, base runner.SoilParameters, agg *report.Aggregator, points []series.FailurePoint, fit report.Fit, fitErr error) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("     MOHR-COULOMB FAILURE ENVELOPE")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	fmt.Println("SAMPLE:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if name != "" {
		fmt.Fprintf(w, "  Program:\t%s\n", name)
	}
	fmt.Fprintf(w, "  Soil:\t%s (%s)\n", base.Category, base.Saturation)
	fmt.Fprintf(w, "  Cohesion c:\t%.2f kPa\n", agg.Cohesion())
	fmt.Fprintf(w, "  Friction angle φ:\t%.2f°\n", agg.FrictionAngleDeg())
	fmt.Fprintf(w, "  Tests:\t%d\n", agg.Len())
	w.Flush()
	fmt.Println()

	fmt.Println("RESULTS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  #\tσ (kPa)\tτf (kPa)\tPeak at (mm)\n")
	fmt.Fprintf(w, "  ─\t───────\t────────\t────────────\n")
	for i, row := range agg.Rows() {
		fmt.Fprintf(w, "  %d\t%.2f\t%.2f\t%.3f\n", i+1, row.NormalStressKPa, row.ShearStrengthKPa, row.PeakDisplacementMm)
	}
	w.Flush()
	fmt.Println()

	var lines []string
	if fitErr == nil {
		lines = []string{
			fmt.Sprintf("Fitted cohesion c  = %.2f kPa", fit.Cohesion),
			fmt.Sprintf("Fitted angle φ     = %.2f°", fit.FrictionAngleDeg),
			fmt.Sprintf("R²                 = %.4f", fit.RSquared),
		}
	} else {
		lines = []string{fmt.Sprintf("No fit: %d distinct σ, need %d", distinctStresses(points), report.MinFitPoints)}
	}
	lines = append(lines, fmt.Sprintf("Max shear stress   = %.2f kPa", agg.MaxShearStress()))
	fmt.Print(diagram.DrawSummaryBox("ENVELOPE", lines))
	fmt.Println()
}

// effectiveStrength folds the saturated strength reduction into c and φ
func effectiveStrength(p runner.SoilParameters) (cohesion, frictionAngleDeg float64) {
	if p.Saturation != soil.Saturated {
		return p.Cohesion, p.FrictionAngleDeg
	}
	f := constitutive.SaturatedStrengthFactor
	tanPhi := math.Tan(p.FrictionAngleDeg * math.Pi / 180)
	return f * p.Cohesion, math.Atan(f*tanPhi) * 180 / math.Pi
}

func distinctStresses(points []series.FailurePoint) int {
	seen := make(map[float64]struct{}, len(points))
	for _, p := range points {
		seen[p.NormalStressKPa] = struct{}{}
	}
	return len(seen)
}
