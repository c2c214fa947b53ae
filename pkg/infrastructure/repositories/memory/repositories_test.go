package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

func TestDemandRepository_LoadAndGet(t *testing.T) {
	repo := NewDemandRepository()
	d, err := entities.NewDemandRecord(1, entities.Roundwood, entities.Conifer, 600)
	require.NoError(t, err)

	require.NoError(t, repo.LoadDemands([]*entities.DemandRecord{d}))
	d.VolumeOverBark = 1

	demands, err := repo.GetDemands()
	require.NoError(t, err)
	require.Len(t, demands, 1)
	assert.Equal(t, 600.0, demands[0].VolumeOverBark, "repository must copy loaded records")
}

func TestForestRepository_Schema(t *testing.T) {
	repo := NewForestRepository(4)
	_, err := repo.GetSchema()
	assert.Error(t, err)

	require.NoError(t, repo.LoadSchema(entities.DefaultClassifierSchema))
	schema, err := repo.GetSchema()
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultClassifierSchema, schema)

	err = repo.LoadInventory([]*entities.InventoryRecord{{AgeClass: 2, Area: -3}})
	assert.Error(t, err)
}

func TestSilvicultureRepository_RejectsInvalidTreatment(t *testing.T) {
	repo := NewSilvicultureRepository()
	err := repo.LoadTreatments([]*entities.Treatment{{DisturbanceID: "20", MinAge: 80, MaxAge: 40}})
	assert.Error(t, err)

	treatments, err := repo.GetTreatments()
	require.NoError(t, err)
	assert.Empty(t, treatments)
}

func TestEventLogRepository_AppendCreatesAndExtendsLog(t *testing.T) {
	ctx := context.Background()
	repo := NewEventLogRepository()
	schema := entities.ClassifierSchema{"status", "forest_type"}
	cols := []string{"status", "forest_type", "amount", "dist_type_name", "step"}

	history, err := repo.LoadHistory(ctx, "AT", schema)
	require.NoError(t, err)
	assert.Nil(t, history)

	event := entities.DisturbanceEvent{
		Classifiers:  entities.Classifiers{"status": "For", "forest_type": "PA"},
		Amount:       150,
		DistTypeName: "20",
		Step:         1,
	}
	require.NoError(t, repo.Append(ctx, "run-1", "AT", schema, cols, []entities.DisturbanceEvent{event}))
	require.NoError(t, repo.Append(ctx, "run-2", "AT", schema, cols, []entities.DisturbanceEvent{event}))

	log, err := repo.LoadHistory(ctx, "AT", schema)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, 2, log.Len())
	assert.Equal(t, []string{"For", "PA", "150", "20", "1"}, log.Rows()[1])
}

func TestEventLogRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEventLogRepository().LoadHistory(ctx, "AT", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
