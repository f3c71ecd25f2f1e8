package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/motohud/internal/ble"
	"github.com/chaz8081/motohud/internal/config"
	"github.com/chaz8081/motohud/internal/display"
	"github.com/chaz8081/motohud/internal/eventlog"
	"github.com/chaz8081/motohud/internal/logger"
	"github.com/chaz8081/motohud/internal/tui"
	"github.com/chaz8081/motohud/internal/weather"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/motohud/config.yaml)")
	initConfig := flag.Bool("init", false, "write the default config file and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			fmt.Printf("Config already exists at %s\n", config.DefaultConfigPath())
			return
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	printBanner(cfg)

	logg, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logg)

	mode, err := display.ParseMode(cfg.Display.Mode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	settings := display.Settings{
		Mode:        mode,
		ShowTime:    cfg.Display.ShowTime,
		ShowWeather: cfg.Display.ShowWeather,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := eventlog.New(eventlog.Options{MaxEntries: cfg.Log.MaxEntries, Logger: logg})
	controller, err := ble.NewController(ble.NewTinyGoAdapter(), cfg.Device.SessionOptions(), events, logg)
	if err != nil {
		log.Fatalf("Failed to create session controller: %v", err)
	}
	// A missing adapter is recorded in the session; the UI still starts.
	if err := controller.Start(ctx); err != nil {
		log.Fatalf("Failed to start session controller: %v", err)
	}
	defer controller.Close()

	wx := weather.New(weather.Options{
		APIKey:      cfg.Weather.APIKey,
		BaseURL:     cfg.Weather.BaseURL,
		MinInterval: cfg.Weather.MinInterval,
		MinDistance: cfg.Weather.MinDistance,
		Timeout:     cfg.Weather.Timeout,
		Logger:      logg,
	})
	if cfg.Weather.APIKey != "" {
		loc := weather.StaticLocator{
			Latitude:  cfg.Weather.Latitude,
			Longitude: cfg.Weather.Longitude,
		}
		go wx.Run(ctx, loc, cfg.Weather.RefreshInterval)
	} else {
		logg.Info("weather lookups disabled, no api key configured")
	}

	if cfg.Device.Name != "" {
		go autoConnect(ctx, controller, cfg.Device.Name, logg)
	}

	model := tui.New(controller, display.NewUpdater(controller, wx), wx, settings)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("ERROR: %v", err)
	}
}

// autoConnect scans for the configured device and connects to it once it
// is discovered. It gives up when the scan ends without a match or when the
// session is taken by a connection the user started.
func autoConnect(ctx context.Context, c *ble.Controller, name string, logg *slog.Logger) {
	snaps, cancel := c.Subscribe()
	defer cancel()

	// Once StartScan returns, the pending snapshot already shows the scan,
	// so an idle snapshot without it means the scan has ended.
	if err := c.StartScan(); err != nil {
		logg.Warn("auto-connect scan failed", "device", name, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if st := snap.State; st != ble.StateIdle && st != ble.StateScanning {
				return
			}
			for _, d := range snap.Devices {
				if d.Name != name {
					continue
				}
				if err := c.Connect(d); err != nil {
					logg.Warn("auto-connect failed", "device", name, "error", err)
				}
				return
			}
			if !snap.Scanning {
				logg.Info("auto-connect device not found", "device", name)
				return
			}
		}
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults (run with -init to write one)")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	device := cfg.Device.Name
	if device == "" {
		device = "(pick from scan)"
	}
	weatherState := "disabled"
	if cfg.Weather.APIKey != "" {
		weatherState = fmt.Sprintf("%.4f,%.4f every %s", cfg.Weather.Latitude, cfg.Weather.Longitude, cfg.Weather.MinInterval)
	}

	fmt.Println("=== motohud ===")
	fmt.Printf("  Device:  %s (service %s, char %s)\n", device, cfg.Device.ServiceUUID, cfg.Device.CharacteristicUUID)
	fmt.Printf("  Display: %s (time %t, weather %t)\n", cfg.Display.Mode, cfg.Display.ShowTime, cfg.Display.ShowWeather)
	fmt.Printf("  Weather: %s\n", weatherState)
	fmt.Printf("  Log:     %s -> %s\n", cfg.Log.Level, cfg.Log.Output)
	fmt.Println("===============")
}
