package events

import (
	"time"
)

// Event is one milestone of an allocation run. The events of a run share
// its run id as stream and are numbered from 1 in publication order.
type Event interface {
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	Version() int
}

// Handler receives the events it subscribed to
type Handler interface {
	Handle(event Event) error
}

// HandlerFunc adapts a function into a Handler
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventStore records run milestones and forwards them to subscribers
type EventStore interface {
	AppendEvent(runID string, event Event) error
	Subscribe(eventTypes []string, handler Handler) error
}

// Milestone is the event published at each run stage
type Milestone struct {
	Kind    string
	RunID   string
	Payload any
	At      time.Time
	Seq     int
}

func (m Milestone) Type() string         { return m.Kind }
func (m Milestone) StreamID() string     { return m.RunID }
func (m Milestone) Data() any            { return m.Payload }
func (m Milestone) Timestamp() time.Time { return m.At }
func (m Milestone) Version() int         { return m.Seq }

// NewEvent creates an unnumbered milestone of a run; the store numbers it
func NewEvent(kind, runID string, payload any) Event {
	return Milestone{Kind: kind, RunID: runID, Payload: payload, At: time.Now()}
}
