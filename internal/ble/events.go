package ble

import "github.com/chaz8081/motohud/internal/ble/protocol"

// event is a message consumed by the controller's run loop. Transport
// callbacks, worker results, timers and public requests all arrive as
// events so that only the loop mutates the session.
type event any

// Public requests. reply receives the precondition verdict.
type (
	startScanRequest  struct{ reply chan error }
	stopScanRequest   struct{ reply chan error }
	disconnectRequest struct{ reply chan error }
	connectRequest    struct {
		device Device
		reply  chan error
	}
	sendRequest struct {
		text  string
		reply chan error
	}
)

// Scanner messages, tagged with the scan they belong to.
type (
	advertisementSeen struct {
		scan   uint64
		device Device
	}
	scanFinished struct {
		scan uint64
		err  error
	}
	scanTimedOut struct{ scan uint64 }
)

// Connection messages, tagged with the attempt generation.
type (
	connectSucceeded struct {
		gen  uint64
		conn Connection
	}
	connectFailed struct {
		gen uint64
		err error
	}
	servicesDiscovered struct {
		gen      uint64
		services []Service
		err      error
	}
	characteristicsDiscovered struct {
		gen   uint64
		chars []Characteristic
		err   error
	}
	subscribed struct {
		gen uint64
		err error
	}
	notificationReceived struct {
		gen  uint64
		data []byte
	}
	writeCompleted struct {
		gen uint64
		cmd protocol.Command
		err error
	}
	disconnected struct {
		gen uint64
		err error
	}
)

// Timers, tagged with the attempt generation.
type (
	discoveryTimedOut struct{ gen uint64 }
	handshakeDue      struct{ gen uint64 }
	graceElapsed      struct{ gen uint64 }
)
