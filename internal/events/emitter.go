package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var buffer = NewRingBuffer(256)

var totalCount atomic.Uint64

// Sink persists events outside the process.
type Sink interface {
	AppendEvent(e Event) error
}

var (
	sinkMu          sync.RWMutex
	sink            Sink
	sinkErrorLogged bool
	logger          = slog.Default()
)

// SetSink sets the sink every emitted event is appended to. nil disables persistence.
func SetSink(s Sink) {
	sinkMu.Lock()
	sink = s
	sinkErrorLogged = false
	sinkMu.Unlock()
}

// SetLogger sets the logger used to report sink failures.
func SetLogger(l *slog.Logger) {
	sinkMu.Lock()
	logger = l
	sinkMu.Unlock()
}

type Event struct {
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	SessionID string                 `json:"session_id,omitempty"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emit records a system-wide event.
func Emit(level, name, msg string, fields map[string]interface{}) (Event, error) {
	return EmitSession("", level, name, msg, fields)
}

// EmitSession records an event scoped to one session. The event is buffered,
// appended to the sink if one is set, and broadcast to subscribers.
func EmitSession(sessionID, level, name, msg string, fields map[string]interface{}) (Event, error) {
	if err := Validate(name); err != nil {
		return Event{}, err
	}

	e := Event{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Name:      name,
		SessionID: sessionID,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	totalCount.Add(1)
	appendToSink(e)
	broadcast(e)

	return e, nil
}

// appendToSink reports the first failure only. The failure event goes straight
// into the buffer so a broken sink never recurses through Emit.
func appendToSink(e Event) {
	sinkMu.RLock()
	s := sink
	l := logger
	sinkMu.RUnlock()

	if s == nil {
		return
	}
	err := s.AppendEvent(e)
	if err == nil {
		return
	}

	sinkMu.Lock()
	first := !sinkErrorLogged
	sinkErrorLogged = true
	sinkMu.Unlock()
	if !first {
		return
	}

	l.Error("event sink append failed", "event", e.Name, "error", err)
	buffer.Add(Event{
		Timestamp: time.Now().UTC(),
		Level:     "error",
		Name:      SystemError,
		Message:   "event sink append failed",
		Fields:    map[string]interface{}{"error": err.Error()},
	})
	totalCount.Add(1)
}

// Snapshot returns all buffered events, oldest first.
func Snapshot() []Event {
	return buffer.Snapshot()
}

// ForSession returns buffered events that belong to the given session.
func ForSession(sessionID string) []Event {
	var out []Event
	for _, e := range buffer.Snapshot() {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out
}

// TotalCount returns the number of events emitted since start.
func TotalCount() uint64 {
	return totalCount.Load()
}

// Clear resets the event buffer and counter. Used for testing.
func Clear() {
	buffer.Clear()
	totalCount.Store(0)
}
