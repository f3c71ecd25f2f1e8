// Package eventlog keeps the human-readable, timestamped record of session
// events shown to the user.
package eventlog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TimeFormat is the timestamp layout of rendered entries.
const TimeFormat = "15:04:05"

// DefaultMaxEntries bounds the log when Options.MaxEntries is zero.
const DefaultMaxEntries = 1000

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Message string
}

// String renders the entry as "[15:04:05] message".
func (e Entry) String() string {
	return "[" + e.Time.Format(TimeFormat) + "] " + e.Message
}

// Options configures a Log.
type Options struct {
	// MaxEntries caps the log; the oldest entries are dropped first.
	// Zero selects DefaultMaxEntries, a negative value means unbounded.
	MaxEntries int
	// Logger mirrors every entry. Nil discards.
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Log is an append-only, time-ordered event log. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	logger  *slog.Logger
	now     func() time.Time

	subs    map[int]chan Entry
	nextSub int
}

// New creates an empty log.
func New(opts Options) *Log {
	if opts.MaxEntries == 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Log{
		max:    opts.MaxEntries,
		logger: opts.Logger,
		now:    opts.Now,
		subs:   make(map[int]chan Entry),
	}
}

// Append stamps message with the current time and adds it to the log.
func (l *Log) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	// Entries stay ordered even if the wall clock steps backwards.
	if n := len(l.entries); n > 0 && t.Before(l.entries[n-1].Time) {
		t = l.entries[n-1].Time
	}
	e := Entry{Time: t, Message: message}
	l.entries = append(l.entries, e)
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.max:]...)
	}

	if l.logger != nil {
		l.logger.Info("[BLE] " + message)
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // slow reader; it can resync from Entries
		}
	}
}

// Appendf formats and appends a message.
func (l *Log) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Entries returns a copy of the log in order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// String renders the full log, one entry per line.
func (l *Log) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Contains reports whether any entry's message contains substr.
func (l *Log) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Subscribe returns a feed of new entries and a function that cancels it.
// Entries are dropped for a subscriber whose buffer is full.
func (l *Log) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Entry, buffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
}
