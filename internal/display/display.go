// Package display builds the display-update commands understood by the HUD
// firmware and pushes them over the command channel.
package display

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects what the HUD shows.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeWaze   Mode = "waze"
)

// UnknownTemperature is shown while no weather reading is available.
const UnknownTemperature = "---"

const (
	updatePrefix = "data"
	timeLayout   = "15:04"
)

// ParseMode parses a config or UI mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNormal, ModeWaze:
		return m, nil
	default:
		return "", fmt.Errorf("display: unknown mode %q", s)
	}
}

// Next returns the mode after m, cycling.
func (m Mode) Next() Mode {
	if m == ModeWaze {
		return ModeNormal
	}
	return ModeWaze
}

// Settings selects the fields of a display update.
type Settings struct {
	Mode        Mode
	ShowTime    bool
	ShowWeather bool
}

// Build returns the update command for s. In normal mode it carries the
// local time as T:HH:mm; and the temperature as W:<temperature>; when
// enabled. Waze mode carries only the mode marker.
func Build(s Settings, now time.Time, temperature string) string {
	var b strings.Builder
	b.WriteString(updatePrefix)
	switch s.Mode {
	case ModeWaze:
		b.WriteString("waze;")
	default:
		if s.ShowTime {
			b.WriteString("T:" + now.Format(timeLayout) + ";")
		}
		if s.ShowWeather {
			if temperature == "" {
				temperature = UnknownTemperature
			}
			b.WriteString("W:" + temperature + ";")
		}
	}
	return b.String()
}
