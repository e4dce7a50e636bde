package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"marketmaker-go/internal/config"
	"marketmaker-go/internal/strategy"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Market Maker Simulator ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit engine settings")
		fmt.Println("3) Edit price feeds")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch simulator")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editEngine(reader, cfg)
		case "3":
			editFeeds(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Mode: %s\n", cfg.Engine.Mode)
	fmt.Printf("Cycles: %d every %dms (warmup %dms)\n", cfg.Engine.TotalCycles, cfg.Engine.CycleIntervalMs, cfg.Engine.WarmupMs)
	fmt.Printf("Notional per side: $%.2f\n", cfg.Engine.NotionalPerSide)
	fmt.Printf("Staleness: %dms\n", cfg.Engine.StalenessMs)
	fmt.Printf("Seed: %d (0 = random)\n", cfg.Engine.Seed)
	fmt.Printf("Feeds: binance=%s jupiter=%s cowswap=%s stub=%s\n",
		onOff(cfg.Feeds.Binance.Enabled), onOff(cfg.Feeds.Jupiter.Enabled),
		onOff(cfg.Feeds.CowSwap.Enabled), onOff(cfg.Feeds.Stub.Enabled))
	fmt.Printf("Status address: %s\n", cfg.App.StatusAddr)
	fmt.Printf("Trade journal: %s\n", cfg.Paper.JournalPath)
}

func editEngine(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Engine ---")
	fmt.Printf("Mode (basic/advanced) [%s]: ", cfg.Engine.Mode)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		if mode, err := strategy.ParseMode(line); err != nil {
			fmt.Printf("%v, keeping %s\n", err, cfg.Engine.Mode)
		} else {
			cfg.Engine.Mode = string(mode)
		}
	}
	cfg.Engine.TotalCycles = int(promptFloat(reader, "Total cycles", float64(cfg.Engine.TotalCycles)))
	cfg.Engine.CycleIntervalMs = int(promptFloat(reader, "Cycle interval (ms)", float64(cfg.Engine.CycleIntervalMs)))
	cfg.Engine.NotionalPerSide = promptFloat(reader, "Notional per side (USD)", cfg.Engine.NotionalPerSide)
	cfg.Engine.StalenessMs = int(promptFloat(reader, "Staleness threshold (ms)", float64(cfg.Engine.StalenessMs)))
	cfg.Engine.Seed = uint64(promptFloat(reader, "Random seed", float64(cfg.Engine.Seed)))
}

func editFeeds(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Feeds ---")
	cfg.Feeds.Binance.Enabled = promptBool(reader, "Binance bookTicker", cfg.Feeds.Binance.Enabled)
	cfg.Feeds.Jupiter.Enabled = promptBool(reader, "Jupiter price", cfg.Feeds.Jupiter.Enabled)
	cfg.Feeds.CowSwap.Enabled = promptBool(reader, "CowSwap quote", cfg.Feeds.CowSwap.Enabled)
	cfg.Feeds.Stub.Enabled = promptBool(reader, "Synthetic stub sources", cfg.Feeds.Stub.Enabled)
	if cfg.Feeds.Jupiter.Enabled {
		cfg.Feeds.Jupiter.SpreadBps = promptFloat(reader, "Jupiter spread (bps)", cfg.Feeds.Jupiter.SpreadBps)
	}
	if cfg.Feeds.CowSwap.Enabled {
		cfg.Feeds.CowSwap.SpreadBps = promptFloat(reader, "CowSwap spread (bps)", cfg.Feeds.CowSwap.SpreadBps)
	}
	if !cfg.Feeds.AnyEnabled() {
		fmt.Println("warning: no feed enabled, the simulator will refuse to start")
	}
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching simulator (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start simulator: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the simulator and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s enabled (y/n) [%s]: ", label, onOff(current))
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "on":
		return true
	case "n", "no", "off":
		return false
	default:
		return current
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
