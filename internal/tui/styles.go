package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorOK     = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorError  = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	colorInfo   = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	labelStyle    = lipgloss.NewStyle().Bold(true).Width(12)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	selectedStyle = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)
