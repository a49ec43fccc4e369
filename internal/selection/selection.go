// Package selection turns raw text-selection events into clean reports.
// Selections are observed at the application level rather than inside a
// specific viewer: the vendor-embedded strategy renders behind an
// isolation boundary this process cannot see into, so capture there is
// best-effort only.
package selection

import "strings"

// Listener forwards non-empty selections to a single consumer.
type Listener struct {
	notify func(text string)
	last   string
}

// NewListener wires a consumer for cleaned selection text.
func NewListener(notify func(text string)) *Listener {
	return &Listener{notify: notify}
}

// Observe handles one selection event. The text is trimmed; empty or
// whitespace-only selections produce no report. Returns the cleaned text
// and whether a report was made.
func (l *Listener) Observe(raw string) (string, bool) {
	text := Clean(raw)
	if text == "" {
		return "", false
	}
	l.last = text
	if l.notify != nil {
		l.notify(text)
	}
	return text, true
}

// Last returns the most recently reported selection, if any.
func (l *Listener) Last() string {
	return l.last
}

// Clean trims surrounding whitespace from a raw selection.
func Clean(raw string) string {
	return strings.TrimSpace(raw)
}
