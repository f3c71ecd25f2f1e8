package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FFE0", "0000ffe0-0000-1000-8000-00805f9b34fb"},
		{"ffe1", "0000ffe1-0000-1000-8000-00805f9b34fb"},
		{" FFE0 ", "0000ffe0-0000-1000-8000-00805f9b34fb"},
		{"0000FFE0-0000-1000-8000-00805F9B34FB", "0000ffe0-0000-1000-8000-00805f9b34fb"},
		{"6e400001-b5a3-f393-e0a9-e50e24dcca9e", "6e400001-b5a3-f393-e0a9-e50e24dcca9e"},
	}
	for _, tt := range tests {
		got, err := NormalizeUUID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeUUIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "FFEZ", "12345", "not-a-uuid"} {
		_, err := NormalizeUUID(in)
		assert.Error(t, err, in)
	}
}

func TestShortUUID(t *testing.T) {
	assert.Equal(t, "FFE0", shortUUID("0000ffe0-0000-1000-8000-00805f9b34fb"))
	assert.Equal(t, "FFE1", shortUUID("0000FFE1-0000-1000-8000-00805F9B34FB"))
	assert.Equal(t, "6e400001-b5a3-f393-e0a9-e50e24dcca9e", shortUUID("6e400001-b5a3-f393-e0a9-e50e24dcca9e"))
}

func TestDeviceDisplayName(t *testing.T) {
	assert.Equal(t, "HMSoft", Device{Name: "HMSoft"}.DisplayName())
	assert.Equal(t, "Unknown", Device{ID: "AA:BB"}.DisplayName())
}

func TestSnapshotConnected(t *testing.T) {
	for s := StateIdle; s <= StateDisconnecting; s++ {
		want := s >= StateConnected && s <= StateReady
		assert.Equal(t, want, Snapshot{State: s}.Connected(), s.String())
	}
	assert.Equal(t, "unknown", State(42).String())
}

// The tinygo wrappers must build against the platform's bluetooth API; the
// write method in particular differs between BlueZ and CoreBluetooth.
func TestTinyGoWrappersImplementInterfaces(t *testing.T) {
	var _ Adapter = NewTinyGoAdapter()
	var _ Connection = (*tinyGoConnection)(nil)
	var _ Service = (*tinyGoService)(nil)
	var _ Characteristic = (*tinyGoCharacteristic)(nil)
}
