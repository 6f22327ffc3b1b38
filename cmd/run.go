package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/goshear/internal/constitutive"
	"github.com/alexiusacademia/goshear/internal/diagram"
	"github.com/alexiusacademia/goshear/internal/export"
	"github.com/alexiusacademia/goshear/internal/metrics"
	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/series"
)

var (
	runSoil soilFlags

	// Loading inputs
	runNormal    float64
	runSpeed     float64
	runMaxDisp   float64
	runArea      float64
	runTimeScale float64

	// Driving
	runCap      int
	runRate     float64
	runRealtime bool
	runLive     bool

	// Output
	runChart   bool
	runOutput  string
	runXLSX    string
	runCSV     string
	runMetrics bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single direct shear test",
	Long: `Shear one soil sample at a constant normal stress and horizontal
speed until the maximum displacement is reached.

The shear stress rises along an exponential curve to the peak strength
τ = c + σ·tan(φ), then hardens (sand) or softens (clay, silt, sandy clay).
Saturated samples keep 70% of the strength and peak 20% later.

Examples:
  # Dry sand at 100 kPa
  goshear run --soil sand --normal 100

  # Saturated clay, custom strength, with the ASCII curve
  goshear run -s clay --saturation saturated -c 30 -f 22 --normal 200 --chart

  # Watch the apparatus in real time and save the curve
  goshear run --soil silt --normal 150 --live --output silt.png

  # Export every sample to Excel and print the run metrics
  goshear run --soil sand --normal 300 --xlsx sand.xlsx --metrics`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Sample flags
	runSoil.bind(runCmd)

	// Loading flags
	runCmd.Flags().Float64VarP(&runNormal, "normal", "n", 0, "Normal stress σ (kPa) [required]")
	runCmd.Flags().Float64Var(&runSpeed, "speed", 1.2, "Horizontal speed (mm/min)")
	runCmd.Flags().Float64Var(&runMaxDisp, "max-displacement", runner.DefaultMaxDisplacementMm, "Maximum horizontal displacement (mm)")
	runCmd.Flags().Float64Var(&runArea, "area", runner.DefaultSampleAreaCm2, "Sample area (cm²)")
	runCmd.Flags().Float64Var(&runTimeScale, "time-scale", runner.DefaultTimeScale, "Simulated seconds per driven second [default: GOSHEAR_TIME_SCALE]")

	// Driving flags
	runCmd.Flags().IntVar(&runCap, "cap", 50, "Samples kept for the live view [default: GOSHEAR_SAMPLE_CAP]")
	runCmd.Flags().Float64Var(&runRate, "rate", 60, "Tick rate (Hz) [default: GOSHEAR_TICK_RATE]")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Tick from the wall clock instead of a fixed step")
	runCmd.Flags().BoolVar(&runLive, "live", false, "Redraw the apparatus while shearing (implies --realtime)")

	// Output flags
	runCmd.Flags().BoolVar(&runChart, "chart", false, "Print the shear stress curve")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Save the shear curve plot (png, svg, pdf)")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "Export samples and failure point to an xlsx workbook")
	runCmd.Flags().StringVar(&runCSV, "csv", "", "Export samples to a csv file")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "Print run metrics in the Prometheus text format")

	runCmd.MarkFlagRequired("normal")
}

func runRun(cmd *cobra.Command, args []string) error {
	params, err := runSoil.resolve(cmd)
	if err != nil {
		return err
	}

	test := runner.DefaultTest(runNormal, runSpeed)
	test.MaxDisplacementMm = runMaxDisp
	test.SampleAreaCm2 = runArea
	test.TimeScale = settings.TimeScale
	if cmd.Flags().Changed("time-scale") {
		test.TimeScale = runTimeScale
	}
	capacity := settings.SampleCap
	if cmd.Flags().Changed("cap") {
		capacity = runCap
	}
	rate := settings.TickRate
	if cmd.Flags().Changed("rate") {
		rate = runRate
	}
	if rate <= 0 {
		return &runner.ConfigError{Field: "rate", Value: rate, Reason: "must be positive"}
	}

	collector := metrics.New()
	sched := newScheduler(runRealtime || runLive, rate)
	r := runner.New(
		runner.WithLogger(logger),
		runner.WithScheduler(sched),
		runner.WithRecorder(series.NewRecorder(capacity, nil)),
		runner.WithRejectHook(collector.ObserveRejection),
	)
	if err := r.Configure(runner.Config{Soil: params, Test: test}); err != nil {
		return err
	}
	defer collector.Watch(r)()

	// The live recorder is capped; keep the whole curve for reports and exports
	full := series.NewRecorder(0, nil)
	defer r.Subscribe(func(u runner.Update) {
		if u.HasSample {
			full.Append(u.Sample)
		}
	})()

	if runLive {
		defer r.Subscribe(func(u runner.Update) {
			if !u.HasSample {
				return
			}
			fmt.Print("\033[H\033[2J")
			fmt.Print(diagram.DrawApparatus(apparatusData(r, u)))
		})()
	}

	logger.Debug("shearing", zap.String("run_id", r.RunID()), zap.Float64("rate_hz", rate), zap.Bool("realtime", runRealtime || runLive))
	if err := r.Start(); err != nil {
		return err
	}
	if err := drive(r, sched); err != nil {
		return err
	}

	samples := full.Samples()
	printRunResults(r, samples)

	if runChart {
		fmt.Println("SHEAR STRESS CURVE:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		stress := make([]float64, len(samples))
		for i, s := range samples {
			stress[i] = s.ShearStressKPa
		}
		from, to := 0.0, 0.0
		if len(samples) > 0 {
			from, to = samples[0].DisplacementMm, samples[len(samples)-1].DisplacementMm
		}
		fmt.Print(diagram.ShearCurveASCII(stress, from, to))
		fmt.Println()
	}

	if err := runExports(r, samples); err != nil {
		return err
	}

	if runMetrics {
		fmt.Println("METRICS:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		if err := collector.WriteText(os.Stdout); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func printRunResults(r *runner.Runner, samples []series.SamplePoint) {
	cfg := r.Config()
	in := r.Inputs()
	state := r.State()

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("     DIRECT SHEAR TEST")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	fmt.Println("INPUT DATA:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Soil:\t%s (%s)\n", cfg.Soil.Category, cfg.Soil.Saturation)
	fmt.Fprintf(w, "  Cohesion c:\t%.2f kPa\n", cfg.Soil.Cohesion)
	fmt.Fprintf(w, "  Friction angle φ:\t%.2f°\n", cfg.Soil.FrictionAngleDeg)
	fmt.Fprintf(w, "  Normal stress σ:\t%.2f kPa\n", cfg.Test.NormalStressKPa)
	fmt.Fprintf(w, "  Speed:\t%.2f mm/min\n", cfg.Test.SpeedMmPerMin)
	fmt.Fprintf(w, "  Sample area:\t%.1f cm²\n", cfg.Test.SampleAreaCm2)
	fmt.Fprintf(w, "  Max displacement:\t%.2f mm\n", cfg.Test.MaxDisplacementMm)
	w.Flush()
	fmt.Println()

	fmt.Println("MODEL:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Peak strength τp:\t%.2f kPa\n", r.PeakStrength())
	fmt.Fprintf(w, "  Peak displacement:\t%.2f mm\n", in.PeakDisplacementMm)
	behaviour := "softening"
	if cfg.Soil.Category.IsDilative() {
		behaviour = "hardening"
	}
	fmt.Fprintf(w, "  Post-peak:\t%s, factor %.2f\n", behaviour, in.PostPeakFactor)
	fmt.Fprintf(w, "  Peak shear force:\t%.3f kN\n", constitutive.ShearForceKN(r.PeakStrength(), cfg.Test.SampleAreaCm2))
	w.Flush()
	fmt.Println()

	fmt.Println("RUN:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Run ID:\t%s\n", r.RunID())
	fmt.Fprintf(w, "  Phase:\t%s\n", state.Phase)
	fmt.Fprintf(w, "  Ticks:\t%d\n", state.ElapsedTicks)
	fmt.Fprintf(w, "  Simulated time:\t%.1f s\n", state.ElapsedSeconds*cfg.Test.TimeScale)
	fmt.Fprintf(w, "  Displacement:\t%.3f mm\n", state.DisplacementMm)
	if n := len(samples); n > 0 {
		last := samples[n-1]
		fmt.Fprintf(w, "  Final τ:\t%.2f kPa\n", last.ShearStressKPa)
		fmt.Fprintf(w, "  Vertical:\t%+.3f mm\n", last.VerticalMm)
	}
	w.Flush()
	fmt.Println()

	stress, at := r.Peak()
	lines := []string{
		fmt.Sprintf("Shear strength τf = %.2f kPa", stress),
		fmt.Sprintf("at displacement   = %.3f mm", at),
		fmt.Sprintf("normal stress σ   = %.2f kPa", cfg.Test.NormalStressKPa),
	}
	if state.Phase != runner.Completed {
		lines = append(lines, "run incomplete, no failure point recorded")
	}
	fmt.Print(diagram.DrawSummaryBox("FAILURE POINT", lines))
	fmt.Println()
}

func runExports(r *runner.Runner, samples []series.SamplePoint) error {
	if runOutput != "" {
		title := fmt.Sprintf("%s (%s), σ = %.0f kPa", r.Config().Soil.Category, r.Config().Soil.Saturation, r.Config().Test.NormalStressKPa)
		if err := diagram.ExportShearCurve(samples, title, r.PeakStrength(), runOutput); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		fmt.Printf("  Shear curve saved to %s\n", runOutput)
	}
	if runXLSX != "" {
		if err := export.WriteXLSX(runXLSX, samples, r.FailureEnvelope()); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		fmt.Printf("  Workbook saved to %s\n", runXLSX)
	}
	if runCSV != "" {
		f, err := os.Create(runCSV)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteSamplesCSV(f, samples); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		fmt.Printf("  Samples saved to %s\n", runCSV)
	}
	if runOutput != "" || runXLSX != "" || runCSV != "" {
		fmt.Println()
	}
	return nil
}
