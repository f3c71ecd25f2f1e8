package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter wraps tinygo-org/bluetooth. It works with BlueZ on Linux and
// CoreBluetooth on macOS. On macOS, device IDs are CoreBluetooth UUIDs
// rather than MAC addresses.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter
	enabled atomic.Bool

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*tinyGoConnection // keyed by device ID
}

// NewTinyGoAdapter creates an adapter backed by the default system adapter.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*tinyGoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// tinygo/bluetooth reports peripheral disconnects through the
	// adapter-level connect handler with connected=false.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		delete(a.connections, id)
		a.mu.Unlock()
		if ok {
			conn.notifyDisconnect()
		}
	})

	a.enabled.Store(true)
	return nil
}

func (a *TinyGoAdapter) PoweredOn() bool {
	if !a.enabled.Load() {
		return false
	}
	powered, err := adapterPowered()
	if err != nil {
		slog.Debug("[BLE] power probe failed, assuming powered", "error", err)
		return true
	}
	return powered
}

func (a *TinyGoAdapter) Scan(ctx context.Context, serviceUUID string, found func(Device)) error {
	uuid, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return fmt.Errorf("ble: parse service UUID: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = a.adapter.StopScan()
		case <-done:
		}
	}()

	err = a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !result.HasServiceUUID(uuid) {
			return
		}
		found(Device{
			ID:           result.Address.String(),
			Name:         result.LocalName(),
			RSSI:         int(result.RSSI),
			DiscoveredAt: time.Now(),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ble: scan: %w", err)
	}
	return nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, id string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(id)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// We wrap it to also respect ctx cancellation.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect keeps running; a late success is released.
		go func() {
			if result := <-ch; result.err == nil {
				_ = result.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		conn := &tinyGoConnection{device: &result.device}

		a.mu.Lock()
		a.connections[id] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// Compile-time checks that the tinygo wrappers implement the transport
// interfaces on every platform.
var (
	_ Adapter        = (*TinyGoAdapter)(nil)
	_ Connection     = (*tinyGoConnection)(nil)
	_ Service        = (*tinyGoService)(nil)
	_ Characteristic = (*tinyGoCharacteristic)(nil)
)

type tinyGoConnection struct {
	device *bluetooth.Device

	mu           sync.Mutex
	disconnectCb func(error)
}

func (c *tinyGoConnection) DiscoverServices() ([]Service, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		out = append(out, &tinyGoService{svc: &svcs[i]})
	}
	return out, nil
}

func (c *tinyGoConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *tinyGoConnection) OnDisconnect(cb func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

func (c *tinyGoConnection) notifyDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
}

type tinyGoService struct {
	svc *bluetooth.DeviceService
}

func (s *tinyGoService) UUID() string {
	return s.svc.UUID().String()
}

func (s *tinyGoService) DiscoverCharacteristics() ([]Characteristic, error) {
	chars, err := s.svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	out := make([]Characteristic, 0, len(chars))
	for i := range chars {
		out = append(out, &tinyGoCharacteristic{char: &chars[i]})
	}
	return out, nil
}

type tinyGoCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *tinyGoCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *tinyGoCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}
