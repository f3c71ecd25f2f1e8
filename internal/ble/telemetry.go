package ble

import (
	"bytes"
	"time"

	"github.com/chaz8081/motohud/internal/ble/protocol"
)

// telemetryReceiver decodes notifications and keeps only the latest one.
type telemetryReceiver struct {
	latest Telemetry
	now    func() time.Time
}

// receive decodes data and publishes it as the latest telemetry. Payloads
// that are not valid UTF-8 are dropped and reported as false.
func (r *telemetryReceiver) receive(data []byte) (Telemetry, bool) {
	text, ok := protocol.DecodeTelemetry(data)
	if !ok {
		return Telemetry{}, false
	}
	r.latest = Telemetry{
		Raw:        bytes.Clone(data),
		Text:       text,
		ReceivedAt: r.now(),
	}
	return r.latest, true
}
