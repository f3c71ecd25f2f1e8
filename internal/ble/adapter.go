// Package ble manages the session with a MotoVision HUD display over
// Bluetooth Low Energy. It handles discovery, the connection state machine,
// the line-oriented command channel and incoming telemetry.
package ble

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HM-10 serial service and characteristic.
const (
	DefaultServiceUUID        = "FFE0"
	DefaultCharacteristicUUID = "FFE1"
)

// bluetoothBaseSuffix completes a 16-bit UUID into the Bluetooth base UUID.
const bluetoothBaseSuffix = "-0000-1000-8000-00805f9b34fb"

// Device is a peripheral seen during a scan.
type Device struct {
	ID           string // platform address: MAC on Linux, CoreBluetooth UUID on macOS
	Name         string
	RSSI         int
	DiscoveredAt time.Time
}

// DisplayName returns the advertised name, or "Unknown" when none was sent.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "Unknown"
	}
	return d.Name
}

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// UUID returns the normalized 128-bit UUID.
	UUID() string
	// Write sends data and waits for the peripheral's write response.
	Write(data []byte) error
	// Subscribe enables notifications and registers the callback for them.
	Subscribe(callback func(data []byte)) error
}

// Service represents a GATT service on a connected peripheral.
type Service interface {
	// UUID returns the normalized 128-bit UUID.
	UUID() string
	// DiscoverCharacteristics enumerates every characteristic of the service.
	DiscoverCharacteristics() ([]Characteristic, error)
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverServices enumerates every service the peripheral exposes.
	DiscoverServices() ([]Service, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func(err error))
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE stack.
	Enable() error
	// PoweredOn reports whether the adapter is enabled and powered.
	PoweredOn() bool
	// Scan reports peripherals advertising serviceUUID through found until
	// ctx is cancelled. Duplicates may be reported.
	Scan(ctx context.Context, serviceUUID string, found func(Device)) error
	// Connect establishes a connection to the device with the given ID.
	Connect(ctx context.Context, id string) (Connection, error)
}

// NormalizeUUID returns the canonical lower-case 128-bit form of a UUID.
// 16-bit short forms such as "FFE0" are expanded with the Bluetooth base UUID.
func NormalizeUUID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 {
		if _, err := strconv.ParseUint(s, 16, 16); err != nil {
			return "", fmt.Errorf("ble: parse uuid %q: %w", s, err)
		}
		s = "0000" + s + bluetoothBaseSuffix
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("ble: parse uuid %q: %w", s, err)
	}
	return id.String(), nil
}

// shortUUID renders a normalized UUID in its 16-bit form when it is derived
// from the Bluetooth base UUID.
func shortUUID(s string) string {
	s = strings.ToLower(s)
	if len(s) == 36 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, bluetoothBaseSuffix) {
		return strings.ToUpper(s[4:8])
	}
	return s
}
