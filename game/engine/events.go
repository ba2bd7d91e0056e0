package engine

import "time"

// Scheduler is supplied by the host event loop. The engine registers its
// frame and one-second loops through it and never starts goroutines itself.
// Calling the returned cancel function guarantees fn is not invoked again,
// including invocations already queued but not yet run.
type Scheduler interface {
	Schedule(interval time.Duration, fn func(dt time.Duration)) (cancel func())
}

// EventType names an engine notification
type EventType string

const (
	EventSelected   EventType = "selected"
	EventDeselected EventType = "deselected"
	EventMatched    EventType = "matched"
	EventShuffled   EventType = "shuffled"
	EventHint       EventType = "hint"
	EventTick       EventType = "tick"
	EventStatus     EventType = "status"
	EventSettled    EventType = "settled"
	EventStarted    EventType = "started"
	EventModeChange EventType = "mode_changed"
)

// Event is emitted to the Listener after the state change it describes
type Event struct {
	Type         EventType   `json:"type"`
	TileIDs      []int       `json:"tile_ids,omitempty"`
	Path         []Point     `json:"path,omitempty"`
	Score        int         `json:"score"`
	TimeLeft     int         `json:"time_left"`
	Status       Status      `json:"status"`
	ShuffleCount int         `json:"shuffle_count"`
	GravityMode  GravityMode `json:"gravity_mode,omitempty"`
	Auto         bool        `json:"auto,omitempty"`
}

// Listener receives engine events on the session's loop goroutine
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(Event)

// OnEvent calls f(ev)
func (f ListenerFunc) OnEvent(ev Event) {
	f(ev)
}

// ScoreSink receives the record of every successful session
type ScoreSink interface {
	RecordScore(ScoreRecord)
}

// ScoreSinkFunc adapts a function to the ScoreSink interface
type ScoreSinkFunc func(ScoreRecord)

// RecordScore calls f(rec)
func (f ScoreSinkFunc) RecordScore(rec ScoreRecord) {
	f(rec)
}
