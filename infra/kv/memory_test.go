package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	val, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", val)

	// Last write wins.
	require.NoError(t, store.Set(ctx, "k", "v2"))
	val, _, _ = store.Get(ctx, "k")
	assert.Equal(t, "v2", val)

	require.NoError(t, store.Remove(ctx, "k"))
	_, found, _ = store.Get(ctx, "k")
	assert.False(t, found)
}
