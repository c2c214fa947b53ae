package events

import (
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps run events in memory, one stream per run
type InMemoryEventStore struct {
	mutex       sync.RWMutex
	streams     map[string][]Event
	subscribers map[string][]Handler
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]Handler),
		logger:      logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent numbers the event within its run and notifies subscribers
// before returning, so handlers observe the milestones of a run in order
func (s *InMemoryEventStore) AppendEvent(runID string, event Event) error {
	s.mutex.Lock()
	m := Milestone{
		Kind:    event.Type(),
		RunID:   runID,
		Payload: event.Data(),
		At:      event.Timestamp(),
		Seq:     len(s.streams[runID]) + 1,
	}
	s.streams[runID] = append(s.streams[runID], m)
	handlers := append([]Handler(nil), s.subscribers[m.Kind]...)
	s.mutex.Unlock()

	for _, handler := range handlers {
		if err := handler.Handle(m); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", m.Kind),
				zap.String("run_id", runID),
				zap.Error(err))
		}
	}
	return nil
}

// ReadEvents returns the events of a run from a sequence number on
func (s *InMemoryEventStore) ReadEvents(runID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stream := s.streams[runID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}
	return append([]Event(nil), stream[fromVersion-1:]...), nil
}

// Subscribe registers a handler for the given event types
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler Handler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}
