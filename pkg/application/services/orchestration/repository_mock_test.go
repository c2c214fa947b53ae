package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/harvest/pkg/application/services/shared"
	testhelpers "github.com/vsinha/harvest/pkg/application/services/testing"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
	"github.com/vsinha/harvest/pkg/infrastructure/events"
)

type mockEventLogRepository struct {
	mock.Mock
}

var _ repositories.EventLogRepository = (*mockEventLogRepository)(nil)

func (m *mockEventLogRepository) LoadHistory(ctx context.Context, country string, schema entities.ClassifierSchema) (*entities.EventLog, error) {
	args := m.Called(ctx, country, schema)
	log, _ := args.Get(0).(*entities.EventLog)
	return log, args.Error(1)
}

func (m *mockEventLogRepository) Append(
	ctx context.Context,
	runID, country string,
	schema entities.ClassifierSchema,
	columns []string,
	events []entities.DisturbanceEvent,
) error {
	args := m.Called(ctx, runID, country, schema, columns, events)
	return args.Error(0)
}

func storedHistory(t *testing.T) *entities.EventLog {
	t.Helper()
	data := testhelpers.BuildCountryData()
	log, err := entities.NewEventLog(data.Schema, data.HistoryColumns, data.HistoryRows)
	require.NoError(t, err)
	return log
}

func TestAllocationOrchestrator_RepositoryReceivesNewEventsOnly(t *testing.T) {
	rc := countryContext(t, shared.ScenarioStaticDemand)
	rc.History = nil

	repo := new(mockEventLogRepository)
	repo.On("LoadHistory", mock.Anything, "AT", rc.Schema).Return(storedHistory(t), nil).Once()
	repo.On("Append", mock.Anything, rc.RunID, "AT", rc.Schema,
		mock.AnythingOfType("[]string"),
		mock.MatchedBy(func(events []entities.DisturbanceEvent) bool { return len(events) == 9 }),
	).Return(nil).Once()

	run, err := NewAllocationOrchestrator(nil, nil).WithEventLogRepository(repo).Run(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, 2, run.HistoryCount())
	assert.Equal(t, 11, run.Combined.Len())
	repo.AssertExpectations(t)
}

func TestAllocationOrchestrator_ContextHistoryTakesPrecedence(t *testing.T) {
	rc := countryContext(t, shared.ScenarioStaticDemand)

	repo := new(mockEventLogRepository)
	repo.On("Append", mock.Anything, rc.RunID, "AT", rc.Schema, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := NewAllocationOrchestrator(nil, nil).WithEventLogRepository(repo).Run(context.Background(), rc)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "LoadHistory", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAllocationOrchestrator_PersistFailure(t *testing.T) {
	rc := countryContext(t, shared.ScenarioStaticDemand)
	diskFull := errors.New("disk full")

	repo := new(mockEventLogRepository)
	repo.On("Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(diskFull).Once()

	store := events.NewInMemoryEventStore(nil)
	run, err := NewAllocationOrchestrator(store, nil).WithEventLogRepository(repo).Run(context.Background(), rc)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.ErrorIs(t, err, diskFull)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StagePersist, stageErr.Stage)

	published, err := store.ReadEvents(rc.RunID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, published)
	assert.Equal(t, events.RunFailedEvent, published[len(published)-1].Type())
}

func TestAllocationOrchestrator_HistoryLoadFailure(t *testing.T) {
	rc := countryContext(t, shared.ScenarioStaticDemand)
	rc.History = nil

	repo := new(mockEventLogRepository)
	repo.On("LoadHistory", mock.Anything, "AT", rc.Schema).Return(nil, errors.New("locked")).Once()

	_, err := NewAllocationOrchestrator(nil, nil).WithEventLogRepository(repo).Run(context.Background(), rc)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageLoad, stageErr.Stage)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
