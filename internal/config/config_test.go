package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvLogFormat, EnvSampleCap, EnvTickRate, EnvTimeScale} {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSampleCap, "20")
	t.Setenv(EnvTickRate, "30")
	t.Setenv(EnvLogLevel, "DEBUG")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, s.SampleCap)
	assert.Equal(t, 30.0, s.TickRate)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 60.0, s.TimeScale)
}

func TestLoadEnvFileDoesNotOverrideEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOSHEAR_SAMPLE_CAP=0\nGOSHEAR_TIME_SCALE=1\n"), 0o644))
	t.Setenv(EnvTimeScale, "120")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.SampleCap)
	assert.Equal(t, 120.0, s.TimeScale)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSampleCap, "-3")
	_, err := Load("")
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv(EnvTickRate, "fast")
	_, err = Load("")
	assert.Error(t, err)

	clearEnv(t)
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		s := Defaults()
		s.LogFormat = format
		s.LogLevel = "debug"
		l, err := NewLogger(s)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(-1), format)
	}
}
