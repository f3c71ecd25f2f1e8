// Command test-link is a manual test for the HUD link.
// It scans, connects to the named device (or the first one found), waits
// for the handshake, pushes one display update, disconnects and prints the
// event log.
//
// Usage:
//
//	go run ./cmd/test-link [--name HMSoft] [--mode normal|waze] [--text data...;]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/motohud/internal/ble"
	"github.com/chaz8081/motohud/internal/config"
	"github.com/chaz8081/motohud/internal/display"
	"github.com/chaz8081/motohud/internal/eventlog"
	"github.com/chaz8081/motohud/internal/logger"
)

func main() {
	name := flag.String("name", "", "device name to connect to (default: first device found)")
	mode := flag.String("mode", "normal", "display mode: normal or waze")
	text := flag.String("text", "", "raw command to send instead of a display update")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	logCfg := config.Default().Log
	logCfg.Output = "stderr"
	if *debug {
		logCfg.Level = "debug"
	}
	logg, closeLog, err := logger.New(logCfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	events := eventlog.New(eventlog.Options{Logger: logg})
	controller, err := ble.NewController(ble.NewTinyGoAdapter(), ble.DefaultOptions(), events, logg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := controller.Start(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	err = run(ctx, controller, *name, *mode, *text)
	controller.Close()

	fmt.Println("\n--- event log ---")
	fmt.Print(events.String())
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nDone!")
}

func run(ctx context.Context, c *ble.Controller, name, mode, text string) error {
	snaps, cancel := c.Subscribe()
	defer cancel()

	fmt.Println("Scanning...")
	if err := c.StartScan(); err != nil {
		return err
	}

	scanned := false
	snap, err := waitFor(ctx, snaps, func(s ble.Snapshot) bool {
		if _, ok := pick(s.Devices, name); ok {
			return true
		}
		scanned = scanned || s.Scanning
		return scanned && !s.Scanning
	})
	if err != nil {
		return fmt.Errorf("waiting for device: %w", err)
	}
	device, ok := pick(snap.Devices, name)
	if !ok {
		return fmt.Errorf("no matching device found")
	}

	fmt.Printf("Connecting to %s (%s)...\n", device.DisplayName(), device.ID)
	if err := c.Connect(device); err != nil {
		return err
	}
	left := false
	snap, err = waitFor(ctx, snaps, func(s ble.Snapshot) bool {
		left = left || s.State != ble.StateIdle
		return s.State == ble.StateReady || (left && s.State == ble.StateIdle)
	})
	if err != nil {
		return fmt.Errorf("waiting for handshake: %w", err)
	}
	if snap.State != ble.StateReady {
		return fmt.Errorf("session ended before ready: %v", snap.LastError)
	}

	if text != "" {
		err = c.Send(text)
		fmt.Printf("Sent %q\n", text)
	} else {
		m, perr := display.ParseMode(mode)
		if perr != nil {
			return perr
		}
		var line string
		line, err = display.NewUpdater(c, nil).Push(display.Settings{Mode: m, ShowTime: true})
		fmt.Printf("Sent %q\n", line)
	}
	if err != nil {
		return err
	}

	// Let the write and any reply land before tearing down.
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}

	if err := c.Disconnect(); err != nil {
		return err
	}
	if _, err := waitFor(ctx, snaps, func(s ble.Snapshot) bool { return s.State == ble.StateIdle }); err != nil {
		fmt.Printf("Disconnect did not complete: %v\n", err)
	}
	return nil
}

// pick returns the device called name, or the first device when name is
// empty.
func pick(devices []ble.Device, name string) (ble.Device, bool) {
	for _, d := range devices {
		if name == "" || d.Name == name {
			return d, true
		}
	}
	return ble.Device{}, false
}

func waitFor(ctx context.Context, snaps <-chan ble.Snapshot, done func(ble.Snapshot) bool) (ble.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return ble.Snapshot{}, ctx.Err()
		case s, ok := <-snaps:
			if !ok {
				return ble.Snapshot{}, fmt.Errorf("session closed")
			}
			if done(s) {
				return s, nil
			}
		}
	}
}
