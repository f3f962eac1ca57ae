package worldstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestBadgerTerrainRoundTrip: сегмент слоя переживает запись и чтение
func TestBadgerTerrainRoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()
	chunk := vec.Vec2{X: 2, Z: -3}

	blocks := []block.Block{
		{Pos: vec.Vec3{X: 33, Y: 5, Z: -42}, TypeID: "grass", Offsets: []float64{0.1, 0, -0.2, 0, 0.3, 0}},
		{Pos: vec.Vec3{X: 34, Y: 5, Z: -42}, TypeID: "stone", Status: 3},
	}
	require.NoError(t, store.SaveTerrainSegment(ctx, "w1", "ld-1", chunk, blocks))

	got, err := store.LoadTerrainSegment(ctx, "w1", "ld-1", chunk)
	require.NoError(t, err)
	assert.Equal(t, blocks, got)
}

// TestBadgerMissingChunk: отсутствующий чанк — пустой срез, не ошибка
func TestBadgerMissingChunk(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	got, err := store.LoadBakedChunk(ctx, "w1", vec.Vec2{X: 99, Z: 99})
	require.NoError(t, err)
	assert.Empty(t, got)

	terrain, err := store.LoadTerrainSegment(ctx, "w1", "ld-1", vec.Vec2{X: 99, Z: 99})
	require.NoError(t, err)
	assert.Empty(t, terrain)
}

// TestBadgerKeysScoped: слои и миры не пересекаются по ключам
func TestBadgerKeysScoped(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()
	chunk := vec.Vec2{X: 0, Z: 0}

	blocksA := []block.Block{{Pos: vec.Vec3{X: 1, Y: 1, Z: 1}, TypeID: "stone"}}
	blocksB := []block.Block{{Pos: vec.Vec3{X: 1, Y: 1, Z: 1}, TypeID: "glass"}}

	require.NoError(t, store.SaveTerrainSegment(ctx, "w1", "ld-a", chunk, blocksA))
	require.NoError(t, store.SaveTerrainSegment(ctx, "w1", "ld-b", chunk, blocksB))
	require.NoError(t, store.SaveBakedChunk(ctx, "w1", chunk, blocksA))

	gotA, err := store.LoadTerrainSegment(ctx, "w1", "ld-a", chunk)
	require.NoError(t, err)
	assert.Equal(t, "stone", gotA[0].TypeID)

	gotB, err := store.LoadTerrainSegment(ctx, "w1", "ld-b", chunk)
	require.NoError(t, err)
	assert.Equal(t, "glass", gotB[0].TypeID)
}

// TestBadgerDirtyMark: отметка чанка на пересборку
func TestBadgerDirtyMark(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()
	chunk := vec.Vec2{X: 5, Z: 5}

	dirty, err := store.IsChunkDirty(ctx, "w1", chunk)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, store.MarkChunkDirty(ctx, "w1", chunk))

	dirty, err = store.IsChunkDirty(ctx, "w1", chunk)
	require.NoError(t, err)
	assert.True(t, dirty)

	// Чужой мир не затронут
	dirty, err = store.IsChunkDirty(ctx, "w2", chunk)
	require.NoError(t, err)
	assert.False(t, dirty)
}

// TestBadgerClosedStore: операции после Close возвращают ошибку
func TestBadgerClosedStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.LoadBakedChunk(context.Background(), "w1", vec.Vec2{})
	assert.Error(t, err)
}
