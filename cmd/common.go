package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goshear/internal/diagram"
	"github.com/alexiusacademia/goshear/internal/driver"
	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/soil"
)

// soilFlags are the sample flags shared by run and envelope
type soilFlags struct {
	soil       string
	saturation string
	cohesion   float64
	friction   float64
}

func (f *soilFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.soil, "soil", "s", "sand", "Soil type: sand, clay, silt, sandy-clay")
	cmd.Flags().StringVar(&f.saturation, "saturation", "dry", "Sample condition: dry or saturated")
	cmd.Flags().Float64VarP(&f.cohesion, "cohesion", "c", 0, "Cohesion c (kPa) [default: soil preset]")
	cmd.Flags().Float64VarP(&f.friction, "friction", "f", 0, "Friction angle φ (degrees) [default: soil preset]")
}

// resolve starts from the soil preset and applies the flags the user set
func (f *soilFlags) resolve(cmd *cobra.Command) (runner.SoilParameters, error) {
	category, err := soil.ParseCategory(f.soil)
	if err != nil {
		return runner.SoilParameters{}, err
	}
	saturation, err := soil.ParseSaturation(f.saturation)
	if err != nil {
		return runner.SoilParameters{}, err
	}
	params, err := runner.PresetSoil(category, saturation)
	if err != nil {
		return runner.SoilParameters{}, err
	}
	if cmd.Flags().Changed("cohesion") {
		params.Cohesion = f.cohesion
	}
	if cmd.Flags().Changed("friction") {
		params.FrictionAngleDeg = f.friction
	}
	return params, nil
}

// apparatusData maps a runner snapshot onto the schematic
func apparatusData(r *runner.Runner, u runner.Update) diagram.ApparatusData {
	cfg := r.Config()
	return diagram.ApparatusData{
		Soil:            cfg.Soil.Category.String(),
		Saturation:      cfg.Soil.Saturation.String(),
		Cohesion:        cfg.Soil.Cohesion,
		Friction:        cfg.Soil.FrictionAngleDeg,
		NormalStress:    cfg.Test.NormalStressKPa,
		Displacement:    u.State.DisplacementMm,
		MaxDisplacement: cfg.Test.MaxDisplacementMm,
		ShearStress:     u.Sample.ShearStressKPa,
		Vertical:        u.Sample.VerticalMm,
		Phase:           u.State.Phase.String(),
	}
}

// drive runs r to completion. In realtime mode ticks follow the wall
// clock at the configured rate; otherwise a fixed logical step is used.
// Ctrl-C stops a realtime run early.
func drive(r *runner.Runner, sched runner.Scheduler) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch d := sched.(type) {
	case *driver.Ticker:
		err := d.Run(ctx, r)
		if errors.Is(err, context.Canceled) {
			fmt.Println("\n  Interrupted.")
			return r.Pause()
		}
		return err
	case *driver.FixedStep:
		_, err := d.Run(ctx, r)
		return err
	}
	return fmt.Errorf("unsupported scheduler %T", sched)
}

// newScheduler picks the tick driver for a command, ticking at rate Hz
func newScheduler(realtime bool, rate float64) runner.Scheduler {
	if realtime {
		return driver.NewTicker(time.Duration(float64(time.Second) / rate))
	}
	return driver.NewFixedStep(rate)
}
