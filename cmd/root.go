package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/goshear/internal/config"
	"github.com/alexiusacademia/goshear/internal/version"
)

var (
	envFile   string
	logLevel  string
	logFormat string

	// Resolved in PersistentPreRunE
	settings config.Settings
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "goshear",
	Short: "Direct Shear Test Simulator",
	Long: `goshear - Go Direct Shear Test Simulator

A CLI tool that simulates the shearing phase of a geotechnical
direct shear test on a soil sample.

This tool helps students and engineers:
  - Trace shear stress vs horizontal displacement for sand, clay, silt
    and sandy clay, dry or saturated
  - Follow dilation and contraction of the sample
  - Build the Mohr-Coulomb failure envelope from tests at several
    normal stresses
  - Export curves to png/svg/pdf and results to xlsx/csv

Strength follows τ = c + σ·tan(φ).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			s.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			s.LogFormat = logFormat
		}
		l, err := config.NewLogger(s)
		if err != nil {
			return err
		}
		settings, logger = s, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   goshear v%-47s║\n", version.Version)
		fmt.Println("  ║   Go Direct Shear Test Simulator                          ║")
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Simulates the shearing phase of a direct shear test and")
		fmt.Println("  builds the Mohr-Coulomb failure envelope.")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Soil presets for sand, clay, silt and sandy clay")
		fmt.Println("    • Live apparatus view and shear stress curve")
		fmt.Println("    • Multi-test failure envelope with least-squares fit")
		fmt.Println("    • Plot export (png, svg, pdf) and data export (xlsx, csv)")
		fmt.Println()
		fmt.Println("  Use 'goshear --help' to see available commands.")
		fmt.Println()
		fmt.Println("  ─────────────────────────────────────────────────────────────")
		fmt.Printf("  Copyright © %s %s. All rights reserved.\n", version.Year, version.Author)
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load GOSHEAR_* defaults from a .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
}
