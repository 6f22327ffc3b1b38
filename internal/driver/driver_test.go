package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goshear/internal/runner"
	"github.com/alexiusacademia/goshear/internal/soil"
)

func config(t *testing.T, speed float64) runner.Config {
	t.Helper()
	s, err := runner.PresetSoil(soil.Silt, soil.Dry)
	require.NoError(t, err)
	return runner.Config{Soil: s, Test: runner.DefaultTest(150, speed)}
}

func TestFixedStepRunsToCompletion(t *testing.T) {
	d := NewFixedStep(60)
	r := runner.New(runner.WithScheduler(d))
	require.NoError(t, r.Configure(config(t, 1.2)))

	n, err := d.Run(context.Background(), r)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing pending before start")

	require.NoError(t, r.Start())
	n, err = d.Run(context.Background(), r)
	require.NoError(t, err)
	assert.InDelta(t, 500, n, 1)
	assert.Equal(t, runner.Completed, r.State().Phase)
	assert.False(t, d.Pending())
}

func TestFixedStepStopsOnPause(t *testing.T) {
	d := NewFixedStep(60)
	r := runner.New(runner.WithScheduler(d))
	require.NoError(t, r.Configure(config(t, 1.2)))
	r.Subscribe(func(u runner.Update) {
		if u.State.ElapsedTicks == 100 && u.State.Phase == runner.Running {
			require.NoError(t, r.Pause())
		}
	})

	require.NoError(t, r.Start())
	n, err := d.Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, runner.Paused, r.State().Phase)
	assert.InDelta(t, 2.0, r.State().DisplacementMm, 1e-9)
}

func TestFixedStepMaxTicks(t *testing.T) {
	d := NewFixedStep(60)
	d.MaxTicks = 10
	r := runner.New(runner.WithScheduler(d))
	require.NoError(t, r.Configure(config(t, 1.2)))
	require.NoError(t, r.Start())

	n, err := d.Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.True(t, r.TickPending())
}

func TestFixedStepHonoursContext(t *testing.T) {
	d := NewFixedStep(60)
	r := runner.New(runner.WithScheduler(d))
	require.NoError(t, r.Configure(config(t, 1.2)))
	require.NoError(t, r.Start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Run(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTickerDrivesFromElapsedTime(t *testing.T) {
	tk := NewTicker(time.Millisecond)
	r := runner.New(runner.WithScheduler(tk))
	// 600 mm/min at the default time scale covers 10 mm in about 17 ms
	require.NoError(t, r.Configure(config(t, 600)))
	require.NoError(t, r.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, tk.Run(ctx, r))
	st := r.State()
	assert.Equal(t, runner.Completed, st.Phase)
	assert.Equal(t, 10.0, st.DisplacementMm)
	assert.False(t, tk.Pending())
}

func TestTickerIdleUntilScheduled(t *testing.T) {
	tk := NewTicker(time.Millisecond)
	r := runner.New(runner.WithScheduler(tk))
	require.NoError(t, r.Configure(config(t, 600)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tk.Run(ctx, r)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, runner.Idle, r.State().Phase)
	assert.Zero(t, r.State().ElapsedTicks)
}

func TestTickerReturnsAfterReset(t *testing.T) {
	tk := NewTicker(time.Millisecond)
	r := runner.New(runner.WithScheduler(tk))
	// slow enough that the run is still going when it is reset
	require.NoError(t, r.Configure(config(t, 0.01)))
	require.NoError(t, r.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx, r) }()

	require.Eventually(t, func() bool { return r.State().ElapsedTicks > 0 }, time.Second, time.Millisecond)
	r.Reset()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ticker kept running after reset")
	}
	assert.Equal(t, runner.Idle, r.State().Phase)
	assert.False(t, tk.Pending())
}
