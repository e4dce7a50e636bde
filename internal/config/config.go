// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"marketmaker-go/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, status address, and logging level.
type App struct {
	Name       string `yaml:"name"`
	Env        string `yaml:"env"`
	LogLevel   string `yaml:"log_level"`
	StatusAddr string `yaml:"status_addr"`
}

// Engine holds the trading cadence, sizing, and quote model settings.
type Engine struct {
	Mode            string  `yaml:"mode"`
	CycleIntervalMs int     `yaml:"cycle_interval_ms"`
	TotalCycles     int     `yaml:"total_cycles"`
	NotionalPerSide float64 `yaml:"notional_per_side"`
	StalenessMs     int     `yaml:"staleness_ms"`
	WarmupMs        int     `yaml:"warmup_ms"`
	Seed            uint64  `yaml:"seed"`
	StatsEvery      int     `yaml:"stats_every"`
}

// CycleInterval converts the configured cadence to a duration.
func (e Engine) CycleInterval() time.Duration {
	return time.Duration(e.CycleIntervalMs) * time.Millisecond
}

// Staleness converts the configured quote age limit to a duration.
func (e Engine) Staleness() time.Duration {
	return time.Duration(e.StalenessMs) * time.Millisecond
}

// Warmup converts the configured pre-trading delay to a duration.
func (e Engine) Warmup() time.Duration {
	return time.Duration(e.WarmupMs) * time.Millisecond
}

// Paper configures where executed trades are journaled.
type Paper struct {
	JournalPath string `yaml:"journal_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App    App    `yaml:"app"`
	Engine Engine `yaml:"engine"`
	Feeds  Feeds  `yaml:"feeds"`
	Paper  Paper  `yaml:"paper"`
}

// Default returns the reference configuration: three ETH/USDC sources, 120 cycles of 5s, $100k per side.
func Default() *Config {
	return &Config{
		App: App{
			Name:       "marketmaker",
			Env:        "dev",
			LogLevel:   "info",
			StatusAddr: ":9090",
		},
		Engine: Engine{
			Mode:            "basic",
			CycleIntervalMs: 5000,
			TotalCycles:     120,
			NotionalPerSide: 100_000,
			StalenessMs:     15_000,
			WarmupMs:        10_000,
			StatsEvery:      10,
		},
		Feeds: defaultFeeds(),
	}
}

// Load reads a YAML file from disk on top of Default and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	var errs []error
	if _, err := strategy.ParseMode(c.Engine.Mode); err != nil {
		errs = append(errs, fmt.Errorf("engine.mode: %w", err))
	}
	if c.Engine.CycleIntervalMs <= 0 {
		errs = append(errs, errors.New("engine.cycle_interval_ms must be positive"))
	}
	if c.Engine.TotalCycles <= 0 {
		errs = append(errs, errors.New("engine.total_cycles must be positive"))
	}
	if c.Engine.NotionalPerSide <= 0 {
		errs = append(errs, errors.New("engine.notional_per_side must be positive"))
	}
	if c.Engine.StalenessMs <= 0 {
		errs = append(errs, errors.New("engine.staleness_ms must be positive"))
	}
	if c.Engine.WarmupMs < 0 {
		errs = append(errs, errors.New("engine.warmup_ms must not be negative"))
	}
	if !c.Feeds.AnyEnabled() {
		errs = append(errs, errors.New("at least one feed must be enabled"))
	}
	return errors.Join(errs...)
}
