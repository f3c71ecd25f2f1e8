package ble

import "time"

// State is the connection state of the session.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateConnected
	StateDiscoveringService
	StateDiscoveringCharacteristic
	StateSubscribing
	StateAwaitingHandshake
	StateReady
	StateDisconnecting
)

var stateNames = [...]string{
	StateIdle:                      "idle",
	StateScanning:                  "scanning",
	StateConnecting:                "connecting",
	StateConnected:                 "connected",
	StateDiscoveringService:        "discovering service",
	StateDiscoveringCharacteristic: "discovering characteristic",
	StateSubscribing:               "subscribing",
	StateAwaitingHandshake:         "awaiting handshake",
	StateReady:                     "ready",
	StateDisconnecting:             "disconnecting",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Telemetry is the most recent notification received from the device.
type Telemetry struct {
	Raw        []byte
	Text       string
	ReceivedAt time.Time
}

// Snapshot is an immutable copy of the published session state.
type Snapshot struct {
	State     State
	Scanning  bool
	Devices   []Device // discovery order
	Device    *Device  // bound device, nil when idle
	Channel   bool     // a characteristic handle is held
	Telemetry Telemetry
	LastError error
}

// Connected reports whether a transport connection is established.
func (s Snapshot) Connected() bool {
	return s.State >= StateConnected && s.State <= StateReady
}

// session is the controller-owned connection record.
type session struct {
	state     State
	device    *Device
	conn      Connection
	char      Characteristic
	channel   *commandChannel
	attemptID string
	gen       uint64
	lastErr   error
}

// characteristic returns the handle only in the states where it is valid.
func (s *session) characteristic() Characteristic {
	switch s.state {
	case StateSubscribing, StateAwaitingHandshake, StateReady, StateDisconnecting:
		return s.char
	}
	return nil
}

// clear drops everything bound to the current attempt. Generation zero
// matches no attempt, so late events of the old one are ignored. The state
// and the last error are left to the caller.
func (s *session) clear() {
	s.device = nil
	s.conn = nil
	s.char = nil
	s.channel = nil
	s.attemptID = ""
	s.gen = 0
}
