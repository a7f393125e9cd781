package annotation

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/storage"
)

func TestRegistryReturnsSameStorePerContext(t *testing.T) {
	r := NewRegistry(storage.NewMemKV(), 4, zerolog.Nop())

	ctx := Context{Symbol: "BTCUSD", Timeframe: "1h", SurfaceID: "main"}
	a := r.Get(ctx)
	b := r.Get(ctx)
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	kv := storage.NewMemKV()
	r := NewRegistry(kv, 2, zerolog.Nop())

	ctxA := Context{Symbol: "A", Timeframe: "1h", SurfaceID: "main"}
	ctxB := Context{Symbol: "B", Timeframe: "1h", SurfaceID: "main"}
	ctxC := Context{Symbol: "C", Timeframe: "1h", SurfaceID: "main"}

	storeA := r.Get(ctxA)
	storeA.Create(NewHorizontalLine(100, DefaultStyle))
	r.Get(ctxB)

	// Touch A so B becomes the eviction candidate.
	r.Get(ctxA)
	r.Get(ctxC)
	assert.Equal(t, 2, r.Len())

	// A survived and kept its in-memory set; B was evicted but reloads
	// from the persisted record on next access.
	assert.Same(t, storeA, r.Get(ctxA))
	require.Equal(t, 1, r.Get(ctxA).Len())

	storeB := r.Get(ctxB)
	assert.NotNil(t, storeB)
}

func TestRegistryEvictionKeepsPersistedState(t *testing.T) {
	kv := storage.NewMemKV()
	r := NewRegistry(kv, 1, zerolog.Nop())

	ctxA := Context{Symbol: "A", Timeframe: "1h", SurfaceID: "main"}
	created := r.Get(ctxA).Create(NewHorizontalLine(42, DefaultStyle))

	// Force eviction of A.
	r.Get(Context{Symbol: "B", Timeframe: "1h", SurfaceID: "main"})

	reloaded := r.Get(ctxA).GetAll()
	require.Len(t, reloaded, 1)
	assert.Equal(t, created.ID, reloaded[0].ID)
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(storage.NewMemKV(), 4, zerolog.Nop())
	ctx := Context{Symbol: "BTCUSD", Timeframe: "1h", SurfaceID: "main"}

	first := r.Get(ctx)
	r.Close(ctx)
	assert.Equal(t, 0, r.Len())

	second := r.Get(ctx)
	assert.NotSame(t, first, second)
}

func TestContextKeyDeterministic(t *testing.T) {
	a := Context{Symbol: " btcusd ", Timeframe: "5m", SurfaceID: "main"}
	b := Context{Symbol: "BTCUSD", Timeframe: "5m", SurfaceID: "main"}
	assert.Equal(t, a.Key(), b.Key())

	// Distinct tuples map to distinct keys.
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		c := Context{Symbol: "BTCUSD", Timeframe: "5m", SurfaceID: fmt.Sprintf("aux%d", i)}
		assert.False(t, seen[c.Key()])
		seen[c.Key()] = true
	}
}
