// Package protocol implements the line-oriented text protocol spoken by the
// HUD firmware over the HM-10 serial characteristic.
package protocol

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// Protocol literals.
const (
	// HandshakeCommand asks the firmware to confirm the connection.
	HandshakeCommand = "c"
	// DisconnectCommand tells the firmware the host is going away.
	DisconnectCommand = "disconnect"
	// DataPrefix starts every display update.
	DataPrefix = "data"
	// AckToken is the telemetry the firmware sends after a handshake.
	AckToken = "connected"
	// Terminator ends every command line.
	Terminator = '\n'
)

var (
	// ErrInvalidUTF8 means the command text is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("protocol: command is not valid UTF-8")
	// ErrEmbeddedNewline means the command would span more than one line.
	ErrEmbeddedNewline = errors.New("protocol: command contains a line break")
)

// Command is a single command line. The zero value is the empty command.
type Command struct {
	text string
}

// NewCommand validates text as one command line. A single trailing line
// terminator is accepted and dropped; Bytes adds it back.
func NewCommand(text string) (Command, error) {
	if !utf8.ValidString(text) {
		return Command{}, ErrInvalidUTF8
	}
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	if strings.ContainsAny(text, "\r\n") {
		return Command{}, ErrEmbeddedNewline
	}
	return Command{text: text}, nil
}

// Handshake returns the connection-confirmation command.
func Handshake() Command { return Command{text: HandshakeCommand} }

// Disconnect returns the disconnect notice.
func Disconnect() Command { return Command{text: DisconnectCommand} }

// Text returns the command without its terminator.
func (c Command) Text() string { return c.text }

// Bytes returns the wire encoding: the UTF-8 text followed by '\n'.
func (c Command) Bytes() []byte {
	b := make([]byte, 0, len(c.text)+1)
	b = append(b, c.text...)
	return append(b, Terminator)
}

// DecodeTelemetry decodes a notification payload into trimmed text.
// It reports false when the payload is not valid UTF-8.
func DecodeTelemetry(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(bytes.TrimSpace(data)), true
}

// IsAck reports whether decoded telemetry is the handshake acknowledgment.
func IsAck(text string) bool {
	return text == AckToken
}
