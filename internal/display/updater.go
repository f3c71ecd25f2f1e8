package display

import "time"

// Sender is the interface the session controller exposes for sending text.
type Sender interface {
	Send(text string) error
}

// TemperatureSource supplies the formatted temperature, e.g. "18°C".
type TemperatureSource interface {
	Temperature() string
}

// Updater builds display updates and sends them to the HUD.
type Updater struct {
	sender Sender
	temp   TemperatureSource
	now    func() time.Time
}

// NewUpdater creates an Updater backed by the given sender. A nil temp
// source reports the temperature as unknown.
// Panics if sender is nil (programmer error).
func NewUpdater(sender Sender, temp TemperatureSource) *Updater {
	if sender == nil {
		panic("display: NewUpdater called with nil sender")
	}
	return &Updater{sender: sender, temp: temp, now: time.Now}
}

// Push sends the update for s and returns the command text that was
// handed to the sender.
func (u *Updater) Push(s Settings) (string, error) {
	temperature := UnknownTemperature
	if u.temp != nil {
		temperature = u.temp.Temperature()
	}
	cmd := Build(s, u.now(), temperature)
	return cmd, u.sender.Send(cmd)
}
