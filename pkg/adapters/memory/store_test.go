package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/treetrim/pkg/adapters/memory"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryParameterStore_Contract(t *testing.T) {
	ports.RunParameterStoreContract(t, memory.NewParameterStore())
}

func TestMemoryStore_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	state := &domain.WorkflowState{
		Staged: &domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 3},
	}
	require.NoError(t, store.Save(ctx, "s1", state))
	state.Staged.Value = 42

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded.Staged.Value)
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, id, &domain.WorkflowState{}))
	}
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
