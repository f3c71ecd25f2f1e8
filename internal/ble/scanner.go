package ble

import (
	"context"
	"time"

	"github.com/chaz8081/motohud/internal/eventlog"
)

// scanner collects advertisements for the configured service. It is owned
// by the controller's run loop; the adapter scan runs on its own goroutine
// and reports back through post.
type scanner struct {
	adapter     Adapter
	serviceUUID string
	timeout     time.Duration
	post        func(event)
	log         *eventlog.Log

	id      uint64
	active  bool
	cancel  context.CancelFunc
	timer   *time.Timer
	devices []Device
	seen    map[string]struct{}
}

func newScanner(adapter Adapter, serviceUUID string, timeout time.Duration, post func(event), log *eventlog.Log) *scanner {
	return &scanner{
		adapter:     adapter,
		serviceUUID: serviceUUID,
		timeout:     timeout,
		post:        post,
		log:         log,
		seen:        make(map[string]struct{}),
	}
}

// start clears the device list and begins a new scan session, replacing
// any scan in progress.
func (s *scanner) start() {
	s.halt()

	s.id++
	id := s.id
	s.devices = nil
	s.seen = make(map[string]struct{})
	s.active = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		err := s.adapter.Scan(ctx, s.serviceUUID, func(d Device) {
			s.post(advertisementSeen{scan: id, device: d})
		})
		s.post(scanFinished{scan: id, err: err})
	}()
	s.timer = time.AfterFunc(s.timeout, func() {
		s.post(scanTimedOut{scan: id})
	})

	s.log.Appendf("Starting scan for devices advertising %s...", shortUUID(s.serviceUUID))
}

// stop ends the current scan. It reports false if no scan was running.
func (s *scanner) stop() bool {
	if !s.active {
		return false
	}
	s.halt()
	s.log.Append("Scanning stopped")
	return true
}

func (s *scanner) halt() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.active = false
}

// current reports whether scan is the active scan session.
func (s *scanner) current(scan uint64) bool {
	return s.active && scan == s.id
}

// add records a device from the active scan session unless already seen.
func (s *scanner) add(scan uint64, d Device) bool {
	if !s.current(scan) {
		return false
	}
	if _, ok := s.seen[d.ID]; ok {
		return false
	}
	s.seen[d.ID] = struct{}{}
	s.devices = append(s.devices, d)
	s.log.Appendf("Found device: %s (RSSI: %ddBm)", d.DisplayName(), d.RSSI)
	return true
}

// list returns a copy of the devices in discovery order.
func (s *scanner) list() []Device {
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}
