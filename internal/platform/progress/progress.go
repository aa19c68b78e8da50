// Package progress carries phase progress events from the orchestration
// layer to whatever surface is watching a reconciliation pass. The pure
// reconciliation cores never emit events themselves.
package progress

import "github.com/rs/zerolog"

// Event is one progress report.
type Event struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Sink receives progress events. A nil Sink is valid and discards them.
type Sink func(Event)

// Emit sends an event if the sink is non-nil.
func (s Sink) Emit(phase string, current, total int) {
	if s != nil {
		s(Event{Phase: phase, Current: current, Total: total})
	}
}

// Logger returns a sink that writes events to the logger at debug level.
func Logger(log zerolog.Logger) Sink {
	return func(e Event) {
		log.Debug().
			Str("phase", e.Phase).
			Int("current", e.Current).
			Int("total", e.Total).
			Msg("progress")
	}
}
