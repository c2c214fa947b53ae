package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	require.NoError(t, store.AppendEvent("run-1", NewDemandLoadedEvent("run-1", "AT", "static_demand", 8)))
	require.NoError(t, store.AppendEvent("run-1", NewEventsAssembledEvent("run-1", 4, 6)))
	require.NoError(t, store.AppendEvent("run-2", NewDemandLoadedEvent("run-2", "BE", "static_demand", 2)))

	run1, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, 1, run1[0].Version())
	assert.Equal(t, 2, run1[1].Version())
	assert.Equal(t, EventsAssembledEvent, run1[1].Type())

	tail, err := store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	run2, err := store.ReadEvents("run-2", 0)
	require.NoError(t, err)
	require.Len(t, run2, 1)
	assert.Equal(t, 1, run2[0].Version())
	assert.Equal(t, "run-2", run2[0].StreamID())

	missing, err := store.ReadEvents("run-3", 1)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestInMemoryEventStore_SubscribersNotifiedInOrder(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	var seen []string
	handler := HandlerFunc(func(e Event) error {
		seen = append(seen, e.Type())
		return nil
	})
	require.NoError(t, store.Subscribe(AllEventTypes, handler))

	require.NoError(t, store.AppendEvent("run-1", NewDemandLoadedEvent("run-1", "AT", "static_demand", 8)))
	require.NoError(t, store.AppendEvent("run-1", NewRunFailedEvent("run-1", "allocation", errors.New("boom"))))
	assert.Equal(t, []string{DemandLoadedEvent, RunFailedEvent}, seen)
}

func TestInMemoryEventStore_HandlerErrorDoesNotFailAppend(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	require.NoError(t, store.Subscribe([]string{DemandLoadedEvent}, HandlerFunc(func(Event) error {
		return errors.New("handler failed")
	})))
	assert.NoError(t, store.AppendEvent("run-1", NewDemandLoadedEvent("run-1", "AT", "static_demand", 1)))
}
