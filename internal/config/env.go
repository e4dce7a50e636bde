package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvMode          = "MM_MODE"
	EnvTotalCycles   = "MM_TOTAL_CYCLES"
	EnvCycleInterval = "MM_CYCLE_INTERVAL_MS"
	EnvNotional      = "MM_NOTIONAL"
	EnvStaleness     = "MM_STALENESS_MS"
	EnvSeed          = "MM_SEED"
	EnvLogLevel      = "MM_LOG_LEVEL"
	EnvStatusAddr    = "MM_STATUS_ADDR"
)

// ApplyEnv loads .env files (best effort) and overlays MM_* variables onto cfg.
func ApplyEnv(cfg *Config, files ...string) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	_ = godotenv.Load(files...) // best-effort; existing env wins

	if v := getEnv(EnvMode); v != "" {
		cfg.Engine.Mode = strings.ToLower(v)
	}
	if v := getEnv(EnvLogLevel); v != "" {
		cfg.App.LogLevel = v
	}
	if v := getEnv(EnvStatusAddr); v != "" {
		cfg.App.StatusAddr = v
	}
	if err := envInt(EnvTotalCycles, &cfg.Engine.TotalCycles); err != nil {
		return err
	}
	if err := envInt(EnvCycleInterval, &cfg.Engine.CycleIntervalMs); err != nil {
		return err
	}
	if err := envInt(EnvStaleness, &cfg.Engine.StalenessMs); err != nil {
		return err
	}
	if v := getEnv(EnvNotional); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNotional, err)
		}
		cfg.Engine.NotionalPerSide = n
	}
	if v := getEnv(EnvSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Engine.Seed = n
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := getEnv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func getEnv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
