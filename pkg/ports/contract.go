package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract checks the behavior every StateStore must share:
// staged states survive a round trip, loads are isolated copies, unknown and
// deleted sessions report ErrSessionNotFound, and List sees saved sessions.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000")

	dec, pct := 0.04, 12.5
	staged := &domain.WorkflowState{
		ActiveNode: &domain.NodeSnapshot{
			Depth:                      2,
			Split:                      &domain.Split{Feature: "petal_width", Threshold: 1.75},
			Impurity:                   domain.Impurity{Metric: "gini", Value: 0.168},
			WeightedImpurityDecrease:   &dec,
			PercentageImpurityDecrease: &pct,
			SampleCount:                54,
			ClassDistribution:          []domain.ClassCount{{Label: "versicolor", Count: 49}, {Label: "virginica", Count: 5}},
		},
		OfferedReasons: []domain.TrimReason{{ID: domain.ReasonLimitDepth, AppliesTo: domain.AppliesToBoth}},
		Staged:         &domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 2},
		StagedReason:   domain.ReasonLimitDepth,
	}

	t.Run("StagedRoundTrip", func(t *testing.T) {
		err := store.Save(ctx, sessionID, staged)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, staged.Phase(), loaded.Phase())
		require.NotNil(t, loaded.ActiveNode)
		assert.Equal(t, staged.ActiveNode.Split, loaded.ActiveNode.Split)
		assert.Equal(t, staged.ActiveNode.ClassDistribution, loaded.ActiveNode.ClassDistribution)
		assert.Equal(t, *staged.Staged, *loaded.Staged)
		assert.Equal(t, staged.StagedReason, loaded.StagedReason)
	})

	t.Run("LoadReturnsCopy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Staged.Value = 99

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2.0, again.Staged.Value, "mutating a loaded state must not affect the store")
	})

	t.Run("UnknownSession", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, &domain.WorkflowState{})
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err)

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "deleted session still loads")
	})

	t.Run("List", func(t *testing.T) {
		ids := []string{sessionID + "-a", sessionID + "-b"}
		for _, id := range ids {
			require.NoError(t, store.Save(ctx, id, &domain.WorkflowState{}))
		}
		t.Cleanup(func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		})

		listed, err := store.List(ctx)
		require.NoError(t, err)
		assert.Subset(t, listed, ids)
	})
}

// RunParameterStoreContract verifies a ParameterStore implementation.
func RunParameterStoreContract(t *testing.T, store ParameterStore) {
	ctx := context.Background()
	key := "model-" + time.Now().Format("20060102150405.000")

	t.Run("UnknownModel", func(t *testing.T) {
		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrParametersNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		params := domain.DefaultHyperparameters()
		params.MaxDepth = 4
		params.MinImpurityDecrease = 0.0125

		require.NoError(t, store.Save(ctx, key, params))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, params, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		params := domain.DefaultHyperparameters()
		params.MinSamplesLeaf = 9
		require.NoError(t, store.Save(ctx, key, params))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 9, loaded.MinSamplesLeaf)
		assert.Equal(t, 20, loaded.MaxDepth)
	})
}
