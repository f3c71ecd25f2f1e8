package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/motohud/internal/ble"
	"github.com/chaz8081/motohud/internal/display"
	"github.com/chaz8081/motohud/internal/eventlog"
)

// fakeSession records the calls the UI makes.
type fakeSession struct {
	log       *eventlog.Log
	snap      ble.Snapshot
	snaps     chan ble.Snapshot
	err       error
	calls     []string
	connected []ble.Device
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		log:   eventlog.New(eventlog.Options{}),
		snaps: make(chan ble.Snapshot, 1),
	}
}

func (f *fakeSession) StartScan() error { f.calls = append(f.calls, "scan"); return f.err }
func (f *fakeSession) StopScan() error  { f.calls = append(f.calls, "stop"); return f.err }
func (f *fakeSession) Disconnect() error {
	f.calls = append(f.calls, "disconnect")
	return f.err
}

func (f *fakeSession) Connect(d ble.Device) error {
	f.calls = append(f.calls, "connect")
	f.connected = append(f.connected, d)
	return f.err
}

func (f *fakeSession) Snapshot() ble.Snapshot { return f.snap }

func (f *fakeSession) Subscribe() (<-chan ble.Snapshot, func()) {
	return f.snaps, func() {}
}

func (f *fakeSession) Log() *eventlog.Log { return f.log }

type fakePusher struct {
	pushed []display.Settings
	err    error
}

func (p *fakePusher) Push(s display.Settings) (string, error) {
	p.pushed = append(p.pushed, s)
	return display.Build(s, time.Date(2026, 1, 1, 9, 30, 0, 0, time.Local), "18°C"), p.err
}

type fixedTemp string

func (f fixedTemp) Temperature() string { return string(f) }

var twoDevices = []ble.Device{
	{ID: "AA:BB:CC:DD:EE:FF", Name: "HMSoft", RSSI: -60},
	{ID: "11:22:33:44:55:66", RSSI: -75},
}

func newTestModel(t *testing.T) (Model, *fakeSession, *fakePusher) {
	t.Helper()
	session := newFakeSession()
	pusher := &fakePusher{}
	m := New(session, pusher, fixedTemp("18°C"), display.Settings{Mode: display.ModeNormal, ShowTime: true, ShowWeather: true})
	t.Cleanup(m.Close)
	return m, session, pusher
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func withSnapshot(m Model, s ble.Snapshot) Model {
	next, _ := m.Update(snapshotMsg(s))
	return next.(Model)
}

func TestScanKeyTogglesScan(t *testing.T) {
	m, session, _ := newTestModel(t)

	m = press(m, "s")
	m = withSnapshot(m, ble.Snapshot{State: ble.StateScanning, Scanning: true})
	m = press(m, "s")

	assert.Equal(t, []string{"scan", "stop"}, session.calls)
	assert.Contains(t, m.View(), "Scan stopped")
}

func TestSelectAndConnect(t *testing.T) {
	m, session, _ := newTestModel(t)
	m = withSnapshot(m, ble.Snapshot{State: ble.StateScanning, Scanning: true, Devices: twoDevices})

	m = press(m, "down", "down", "enter")
	require.Len(t, session.connected, 1)
	assert.Equal(t, twoDevices[1].ID, session.connected[0].ID, "selection stops at the last device")

	m = press(m, "up", "enter")
	require.Len(t, session.connected, 2)
	assert.Equal(t, twoDevices[0].ID, session.connected[1].ID)
	assert.Contains(t, m.View(), "Connecting to HMSoft")
}

func TestConnectWithoutDevices(t *testing.T) {
	m, session, _ := newTestModel(t)
	m = press(m, "enter")
	assert.Empty(t, session.calls)
	assert.Contains(t, m.View(), "press s to scan")
}

func TestSelectionClampedWhenListShrinks(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = withSnapshot(m, ble.Snapshot{Devices: twoDevices})
	m = press(m, "down")
	require.Equal(t, 1, m.selected)

	m = withSnapshot(m, ble.Snapshot{Devices: twoDevices[:1]})
	assert.Equal(t, 0, m.selected)
}

func TestErrorsShownInStatus(t *testing.T) {
	m, session, _ := newTestModel(t)
	session.err = errors.New("ble: connect to HMSoft while ready: session busy")
	m = withSnapshot(m, ble.Snapshot{Devices: twoDevices})

	m = press(m, "enter")
	assert.Contains(t, m.View(), "session busy")
}

func TestDisconnectKey(t *testing.T) {
	m, session, _ := newTestModel(t)
	press(m, "d")
	assert.Equal(t, []string{"disconnect"}, session.calls)
}

func TestUpdateDisplayKey(t *testing.T) {
	m, _, pusher := newTestModel(t)

	m = press(m, "u")
	require.Len(t, pusher.pushed, 1)
	assert.Contains(t, m.View(), "Sent: dataT:09:30;W:18°C;")

	pusher.err = errors.New("ble: send while idle: not ready to send command")
	m = press(m, "u")
	assert.Contains(t, m.View(), "not ready to send command")
}

func TestSettingsKeys(t *testing.T) {
	m, _, pusher := newTestModel(t)

	m = press(m, "t", "w")
	assert.False(t, m.Settings().ShowTime)
	assert.False(t, m.Settings().ShowWeather)

	m = press(m, "m", "u")
	assert.Equal(t, display.ModeWaze, m.Settings().Mode)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, display.ModeWaze, pusher.pushed[0].Mode)
	assert.Contains(t, m.View(), "Sent: datawaze;")

	m = press(m, "m")
	assert.Equal(t, display.ModeNormal, m.Settings().Mode)
}

func TestClearLogKey(t *testing.T) {
	m, session, _ := newTestModel(t)
	session.log.Append("Found device: HMSoft (RSSI: -60dBm)")

	next, _ := m.Update(logMsg(eventlog.Entry{}))
	m = next.(Model)
	assert.Contains(t, m.View(), "Found device: HMSoft")

	m = press(m, "c")
	assert.Zero(t, session.log.Len())
	assert.NotContains(t, m.View(), "Found device: HMSoft")
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestViewShowsSession(t *testing.T) {
	m, _, _ := newTestModel(t)
	dev := twoDevices[0]
	m = withSnapshot(m, ble.Snapshot{
		State:     ble.StateReady,
		Device:    &dev,
		Channel:   true,
		Telemetry: ble.Telemetry{Text: "connected", ReceivedAt: time.Now()},
		LastError: errors.New("ble: write \"waze;\": write failed"),
	})

	view := m.View()
	for _, want := range []string{"ready", "HMSoft (AA:BB:CC:DD:EE:FF)", "connected", "write failed", "weather on (18°C)"} {
		assert.Contains(t, view, want)
	}
}

func TestSnapshotMessagesKeepListening(t *testing.T) {
	m, session, _ := newTestModel(t)
	session.snaps <- ble.Snapshot{State: ble.StateScanning}

	_, cmd := m.Update(snapshotMsg(ble.Snapshot{}))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, snapshotMsg(ble.Snapshot{State: ble.StateScanning}), msg)
}
