// Package tui is the terminal control surface for the HUD session: scan,
// pick a device, connect, push display updates and watch the event log.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chaz8081/motohud/internal/ble"
	"github.com/chaz8081/motohud/internal/display"
	"github.com/chaz8081/motohud/internal/eventlog"
)

// Session is the part of the session controller the UI drives.
type Session interface {
	StartScan() error
	StopScan() error
	Connect(d ble.Device) error
	Disconnect() error
	Snapshot() ble.Snapshot
	Subscribe() (<-chan ble.Snapshot, func())
	Log() *eventlog.Log
}

// Pusher sends display updates.
type Pusher interface {
	Push(s display.Settings) (string, error)
}

// Layout rows taken by everything but the log viewport.
const chromeHeight = 16

type (
	snapshotMsg ble.Snapshot
	logMsg      eventlog.Entry
)

// Model is the Bubble Tea model for the control surface.
type Model struct {
	session Session
	pusher  Pusher
	temp    display.TemperatureSource

	snaps       <-chan ble.Snapshot
	entries     <-chan eventlog.Entry
	unsubscribe []func()

	snap     ble.Snapshot
	selected int
	settings display.Settings
	status   string
	statusOK bool

	spinner spinner.Model
	logView viewport.Model
	width   int
	height  int
}

// New creates the model and subscribes to the session. Call Close when
// the program has finished.
func New(session Session, pusher Pusher, temp display.TemperatureSource, settings display.Settings) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorInfo)

	snaps, cancelSnaps := session.Subscribe()
	entries, cancelLog := session.Log().Subscribe(64)

	m := Model{
		session:     session,
		pusher:      pusher,
		temp:        temp,
		snaps:       snaps,
		entries:     entries,
		unsubscribe: []func(){cancelSnaps, cancelLog},
		snap:        session.Snapshot(),
		settings:    settings,
		spinner:     s,
		logView:     viewport.New(80, 8),
		width:       80,
		height:      24,
	}
	m.refreshLog()
	return m
}

// Close cancels the session subscriptions.
func (m Model) Close() {
	for _, cancel := range m.unsubscribe {
		cancel()
	}
}

// Settings returns the current display settings.
func (m Model) Settings() display.Settings {
	return m.settings
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitSnapshot(m.snaps), waitLog(m.entries))
}

func waitSnapshot(ch <-chan ble.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func waitLog(ch <-chan eventlog.Entry) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(e)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = max(msg.Width-4, 20)
		m.logView.Height = max(msg.Height-chromeHeight-len(m.snap.Devices), 3)
		m.refreshLog()
		return m, nil

	case snapshotMsg:
		m.snap = ble.Snapshot(msg)
		m.clampSelection()
		return m, waitSnapshot(m.snaps)

	case logMsg:
		m.refreshLog()
		return m, waitLog(m.entries)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		if m.snap.Scanning {
			m.report(m.session.StopScan(), "Scan stopped")
		} else {
			m.report(m.session.StartScan(), "Scanning...")
		}

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.snap.Devices)-1 {
			m.selected++
		}

	case "enter":
		if len(m.snap.Devices) == 0 {
			m.setStatus(false, "No device to connect to, press s to scan")
			break
		}
		d := m.snap.Devices[m.selected]
		m.report(m.session.Connect(d), "Connecting to "+d.DisplayName())

	case "d":
		m.report(m.session.Disconnect(), "Disconnecting")

	case "u":
		line, err := m.pusher.Push(m.settings)
		m.report(err, "Sent: "+line)

	case "m":
		m.settings.Mode = m.settings.Mode.Next()
	case "t":
		m.settings.ShowTime = !m.settings.ShowTime
	case "w":
		m.settings.ShowWeather = !m.settings.ShowWeather

	case "c":
		m.session.Log().Clear()
		m.refreshLog()

	default:
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) report(err error, success string) {
	if err != nil {
		m.setStatus(false, err.Error())
		return
	}
	m.setStatus(true, success)
}

func (m *Model) setStatus(ok bool, text string) {
	m.status = text
	m.statusOK = ok
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snap.Devices) {
		m.selected = max(len(m.snap.Devices)-1, 0)
	}
}

func (m *Model) refreshLog() {
	m.logView.SetContent(m.session.Log().String())
	m.logView.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("motohud"))
	b.WriteString("\n\n")

	b.WriteString(m.row("State", m.stateView()))
	device := dimStyle.Render("none")
	if d := m.snap.Device; d != nil {
		device = fmt.Sprintf("%s (%s)", d.DisplayName(), d.ID)
	}
	b.WriteString(m.row("Device", device))
	telemetry := dimStyle.Render("none")
	if t := m.snap.Telemetry; !t.ReceivedAt.IsZero() {
		telemetry = fmt.Sprintf("%s %s", t.Text, dimStyle.Render(t.ReceivedAt.Format(eventlog.TimeFormat)))
	}
	b.WriteString(m.row("Telemetry", telemetry))
	if err := m.snap.LastError; err != nil {
		b.WriteString(m.row("Last error", errorStyle.Render(err.Error())))
	}
	b.WriteString(m.row("Display", m.settingsView()))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Devices"))
	b.WriteString("\n")
	if len(m.snap.Devices) == 0 {
		b.WriteString(dimStyle.Render("  no devices found"))
		b.WriteString("\n")
	}
	for i, d := range m.snap.Devices {
		line := fmt.Sprintf("%s  %s  %ddBm", d.DisplayName(), dimStyle.Render(d.ID), d.RSSI)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(m.logView.View()))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusOK {
			b.WriteString(okStyle.Render(m.status))
		} else {
			b.WriteString(warnStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("s scan • ↑/↓ select • enter connect • d disconnect • u update display • m mode • t time • w weather • c clear log • q quit"))
	return b.String()
}

func (m Model) row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

func (m Model) stateView() string {
	st := m.snap.State.String()
	switch m.snap.State {
	case ble.StateIdle:
		return dimStyle.Render(st)
	case ble.StateReady:
		return okStyle.Render(st)
	default:
		return m.spinner.View() + " " + st
	}
}

func (m Model) settingsView() string {
	if m.settings.Mode == display.ModeWaze {
		return "waze"
	}
	temp := display.UnknownTemperature
	if m.temp != nil {
		temp = m.temp.Temperature()
	}
	return fmt.Sprintf("normal  time %s  weather %s (%s)", onOff(m.settings.ShowTime), onOff(m.settings.ShowWeather), temp)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
