package project

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonylab/labsync/internal/remote"
)

func setupTestStore(t *testing.T) (*Store, *remote.MockGateway) {
	t.Helper()
	gateway := remote.NewMockGateway()
	return NewStore(gateway, nil), gateway
}

// seedProject creates a project directly on the gateway, outside the store.
func seedProject(t *testing.T, gateway *remote.MockGateway, name, owner string) *remote.Project {
	t.Helper()
	p, err := gateway.CreateProject(context.Background(), name, owner)
	require.NoError(t, err)
	return p
}

func TestStore_Load_FiltersByOwner(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Mine", "admin")
	seedProject(t, gateway, "Theirs", "other")

	require.NoError(t, store.Load(ctx, "admin"))

	projects := store.Projects()
	require.Len(t, projects, 1)
	for _, p := range projects {
		assert.Equal(t, "admin", p.Owner)
	}
}

func TestStore_Load_Failure_LeavesMirrorUnchanged(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Mine", "admin")
	require.NoError(t, store.Load(ctx, "admin"))

	gateway.NextErr = errors.New("remote unavailable")
	require.Error(t, store.Load(ctx, "admin"))

	assert.Len(t, store.Projects(), 1)
}

func TestStore_CreateProject(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Load(ctx, "admin"))

	created, err := store.CreateProject(ctx, "Lung Cancer Study")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "admin", created.Owner)

	projects := store.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, created.ID, projects[0].ID)
}

func TestStore_CreateProject_EmptyNameFallsBack(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, "admin"))

	created, err := store.CreateProject(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, DefaultProjectName, created.Name)
}

func TestStore_CreateProject_PrependsNewest(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, "admin"))

	_, err := store.CreateProject(ctx, "First")
	require.NoError(t, err)
	second, err := store.CreateProject(ctx, "Second")
	require.NoError(t, err)

	projects := store.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
}

func TestStore_CreateProject_NoOwner(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.CreateProject(context.Background(), "Orphan")
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestStore_CreateProject_Failure_NoOptimisticInsert(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, "admin"))

	gateway.NextErr = errors.New("remote unavailable")
	_, err := store.CreateProject(ctx, "Phantom")
	require.Error(t, err)

	assert.Empty(t, store.Projects())
}

func TestStore_DeleteProject_ClearsActiveSelection(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Mine", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(p.ID)

	require.NoError(t, store.DeleteProject(ctx, p.ID))

	assert.Empty(t, store.ActiveProjectID())
	assert.Empty(t, store.Projects())
}

func TestStore_DeleteProject_OtherSelectionSurvives(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	keep := seedProject(t, gateway, "Keep", "admin")
	drop := seedProject(t, gateway, "Drop", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(keep.ID)

	require.NoError(t, store.DeleteProject(ctx, drop.ID))

	assert.Equal(t, keep.ID, store.ActiveProjectID())
	require.Len(t, store.Projects(), 1)
}

func TestStore_DeleteProject_GoneRemotely_StillDropsLocally(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Mine", "admin")
	require.NoError(t, store.Load(ctx, "admin"))

	// Deleted out from under the mirror
	require.NoError(t, gateway.DeleteProject(ctx, p.ID))

	require.NoError(t, store.DeleteProject(ctx, p.ID))
	assert.Empty(t, store.Projects())
}

func TestStore_DeleteProject_RemoteFailure_LeavesMirror(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Mine", "admin")
	require.NoError(t, store.Load(ctx, "admin"))

	gateway.NextErr = errors.New("remote unavailable")
	require.Error(t, store.DeleteProject(ctx, p.ID))

	assert.Len(t, store.Projects(), 1)
}

func TestStore_Select_UnknownID(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Load(context.Background(), "admin"))

	store.Select("nonexistent")

	assert.Equal(t, "nonexistent", store.ActiveProjectID())
	_, ok := store.ActiveProject()
	assert.False(t, ok, "unknown selection yields no active project")
}

func TestStore_AddExperiment(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(p.ID)

	doses := []remote.Dose{{Concentration: "0"}, {Concentration: "10"}}
	exp, err := store.AddExperiment(ctx, "A549", "Isalpinin", doses)
	require.NoError(t, err)

	require.NotNil(t, exp.AnalysisResult)
	assert.Equal(t, []int{100, 75}, exp.AnalysisResult.CountData)

	projects := store.Projects()
	require.Len(t, projects[0].Experiments, 1)
	assert.Equal(t, exp.ID, projects[0].Experiments[0].ID)
}

func TestStore_AddExperiment_NoSelection_NoRemoteCall(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))

	_, err := store.AddExperiment(ctx, "A549", "Placebo", []remote.Dose{{Concentration: "0"}})
	assert.ErrorIs(t, err, ErrNoActiveProject)
	assert.Zero(t, gateway.AnalyzeCalls, "no I/O on a local fast failure")
}

func TestStore_AddExperiment_UnknownSelection_NoRemoteCall(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select("nonexistent")

	_, err := store.AddExperiment(ctx, "A549", "Placebo", []remote.Dose{{Concentration: "0"}})
	assert.ErrorIs(t, err, ErrNoActiveProject)
	assert.Zero(t, gateway.AnalyzeCalls)
}

func TestStore_AddExperiment_IdempotentUnderDuplicateDelivery(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(p.ID)

	doses := []remote.Dose{{Concentration: "0"}}

	// Force the gateway to hand back the same experiment id twice, as a
	// retried call would.
	gateway.NextExperimentID = "exp-1"
	_, err := store.AddExperiment(ctx, "A549", "Placebo", doses)
	require.NoError(t, err)

	gateway.NextExperimentID = "exp-1"
	_, err = store.AddExperiment(ctx, "A549", "Placebo", doses)
	require.NoError(t, err)

	projects := store.Projects()
	count := 0
	for _, e := range projects[0].Experiments {
		if e.ID == "exp-1" {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicate delivery must not duplicate the entry")
}

func TestStore_AddExperiment_RemoteFailure_LeavesMirror(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(p.ID)

	gateway.NextErr = errors.New("remote unavailable")
	_, err := store.AddExperiment(ctx, "A549", "Placebo", []remote.Dose{{Concentration: "0"}})
	require.Error(t, err)

	assert.Empty(t, store.Projects()[0].Experiments)
}

func TestStore_Reset_EmptiesMirror(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	p := seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))
	store.Select(p.ID)

	store.Reset()

	assert.Empty(t, store.Projects())
	assert.Empty(t, store.ActiveProjectID())
	assert.Empty(t, store.Owner())
}

func TestStore_Subscribe_NotifiedOnChanges(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Study", "admin")

	notifications := 0
	store.Subscribe(func() { notifications++ })

	require.NoError(t, store.Load(ctx, "admin"))
	assert.Equal(t, 1, notifications)

	_, err := store.CreateProject(ctx, "Another")
	require.NoError(t, err)
	assert.Equal(t, 2, notifications)

	store.Reset()
	assert.Equal(t, 3, notifications)
}

func TestStore_Projects_ReturnsClones(t *testing.T) {
	store, gateway := setupTestStore(t)
	ctx := context.Background()

	seedProject(t, gateway, "Study", "admin")
	require.NoError(t, store.Load(ctx, "admin"))

	projects := store.Projects()
	projects[0].Name = "mutated"

	assert.Equal(t, "Study", store.Projects()[0].Name)
}
