package ble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/motohud/internal/ble/protocol"
)

func TestCommandChannelWritesInOrder(t *testing.T) {
	char := newMockCharacteristic("ffe1")
	results := make(chan writeCompleted, 8)
	ch := newCommandChannel(char, 7, 8, func(ev event) { results <- ev.(writeCompleted) })
	defer ch.close()

	for _, text := range []string{"c", "waze;", "disconnect"} {
		cmd, err := protocol.NewCommand(text)
		require.NoError(t, err)
		require.NoError(t, ch.enqueue(cmd))
	}

	for _, want := range []string{"c", "waze;", "disconnect"} {
		select {
		case res := <-results:
			assert.Equal(t, uint64(7), res.gen)
			assert.Equal(t, want, res.cmd.Text())
			assert.NoError(t, res.err)
		case <-time.After(time.Second):
			t.Fatalf("no result for %q", want)
		}
	}
	assert.Equal(t, []string{"c\n", "waze;\n", "disconnect\n"}, char.Writes())
}

func TestCommandChannelQueueFull(t *testing.T) {
	char := newMockCharacteristic("ffe1")
	hold := make(chan struct{})
	char.writeHold = hold
	ch := newCommandChannel(char, 1, 1, func(event) {})
	defer close(hold)
	defer ch.close()

	// The first command is taken by the writer, the second fills the queue.
	require.NoError(t, ch.enqueue(protocol.Handshake()))
	require.Eventually(t, func() bool { return char.MaxInflight() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, ch.enqueue(protocol.Handshake()))
	assert.ErrorIs(t, ch.enqueue(protocol.Handshake()), errQueueFull)
}

func TestCommandChannelStopsOnClose(t *testing.T) {
	char := newMockCharacteristic("ffe1")
	ch := newCommandChannel(char, 1, 4, func(event) {})
	ch.close()

	require.NoError(t, ch.enqueue(protocol.Disconnect()))
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, char.Writes())
}

func TestTelemetryReceiver(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	r := telemetryReceiver{now: func() time.Time { return at }}

	raw := []byte(" connected\r\n")
	tel, ok := r.receive(raw)
	require.True(t, ok)
	assert.Equal(t, "connected", tel.Text)
	assert.Equal(t, at, tel.ReceivedAt)

	raw[1] = 'X'
	assert.Equal(t, []byte(" connected\r\n"), r.latest.Raw, "raw bytes are copied")

	_, ok = r.receive([]byte{0xc3, 0x28})
	assert.False(t, ok)
	assert.Equal(t, "connected", r.latest.Text)
}
