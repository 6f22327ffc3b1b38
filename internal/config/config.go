package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables read by Load
const (
	EnvLogLevel  = "GOSHEAR_LOG_LEVEL"
	EnvLogFormat = "GOSHEAR_LOG_FORMAT"
	EnvSampleCap = "GOSHEAR_SAMPLE_CAP"
	EnvTickRate  = "GOSHEAR_TICK_RATE"
	EnvTimeScale = "GOSHEAR_TIME_SCALE"
)

// Settings are the process-wide CLI defaults
type Settings struct {
	LogLevel  string  // debug, info, warn, error
	LogFormat string  // console or json
	SampleCap int     // retained samples per run, 0 = all
	TickRate  float64 // ticks per second of driven time
	TimeScale float64 // simulated seconds per driven second
}

// Defaults returns the built-in settings
func Defaults() Settings {
	return Settings{
		LogLevel:  "warn",
		LogFormat: "console",
		SampleCap: 50,
		TickRate:  60,
		TimeScale: 60,
	}
}

// Load reads settings from the environment. When envFile is not empty it
// is loaded first; variables already set in the environment win.
func Load(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Settings{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	s := Defaults()
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		s.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		s.LogFormat = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv(EnvSampleCap); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return Settings{}, fmt.Errorf("%s: want a non-negative integer, got %q", EnvSampleCap, v)
		}
		s.SampleCap = n
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{EnvTickRate, &s.TickRate},
		{EnvTimeScale, &s.TimeScale},
	} {
		v, ok := os.LookupEnv(f.name)
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || x <= 0 {
			return Settings{}, fmt.Errorf("%s: want a positive number, got %q", f.name, v)
		}
		*f.dst = x
	}
	return s, nil
}

// NewLogger builds a zap logger writing to stderr
func NewLogger(s Settings) (*zap.Logger, error) {
	var zapCfg zap.Config
	if strings.EqualFold(s.LogFormat, "json") {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	switch strings.ToLower(s.LogLevel) {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	return zapCfg.Build()
}
