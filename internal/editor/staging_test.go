package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// TestStagingPutPreservesCreatedAt: перезапись правки сохраняет CreatedAt
// и двигает ModifiedAt
func TestStagingPutPreservesCreatedAt(t *testing.T) {
	repo := NewMemoryStagingRepo()
	ctx := context.Background()
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	first := &StagedBlock{
		WorldID:     "w1",
		LayerDataID: "l1",
		Pos:         pos,
		Block:       block.Block{Pos: pos, TypeID: "stone"},
	}
	require.NoError(t, repo.Put(ctx, first))
	createdAt := first.CreatedAt
	require.False(t, createdAt.IsZero())

	time.Sleep(5 * time.Millisecond)

	second := &StagedBlock{
		WorldID:     "w1",
		LayerDataID: "l1",
		Pos:         pos,
		Block:       block.Block{Pos: pos, TypeID: "glass"},
	}
	require.NoError(t, repo.Put(ctx, second))

	got, err := repo.Get(ctx, "w1", "l1", pos)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "glass", got.Block.TypeID, "запись перезаписывается целиком")
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.True(t, got.ModifiedAt.After(createdAt))
}

// TestStagingGetMissing: отсутствующая правка — nil без ошибки
func TestStagingGetMissing(t *testing.T) {
	repo := NewMemoryStagingRepo()

	got, err := repo.Get(context.Background(), "w1", "l1", vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestStagingLayerScoping: операции слоя не задевают чужие слои и миры
func TestStagingLayerScoping(t *testing.T) {
	repo := NewMemoryStagingRepo()
	ctx := context.Background()

	put := func(worldID, layerDataID string, x int) {
		require.NoError(t, repo.Put(ctx, &StagedBlock{
			WorldID:     worldID,
			LayerDataID: layerDataID,
			Pos:         vec.Vec3{X: x, Y: 0, Z: 0},
			Block:       block.Block{TypeID: "stone"},
		}))
	}

	put("w1", "l1", 1)
	put("w1", "l1", 2)
	put("w1", "l2", 3)
	put("w2", "l1", 4)

	entries, err := repo.ListByLayer(ctx, "w1", "l1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	count, err := repo.DeleteByLayer(ctx, "w1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Чужие записи целы
	other, err := repo.ListByLayer(ctx, "w1", "l2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
	foreign, err := repo.ListByLayer(ctx, "w2", "l1")
	require.NoError(t, err)
	assert.Len(t, foreign, 1)
}

// TestStagingExpiry: правка, пережившая TTL, невидима
func TestStagingExpiry(t *testing.T) {
	repo := NewMemoryStagingRepo()
	repo.ttl = 5 * time.Millisecond
	ctx := context.Background()
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}

	require.NoError(t, repo.Put(ctx, &StagedBlock{
		WorldID:     "w1",
		LayerDataID: "l1",
		Pos:         pos,
		Block:       block.Block{TypeID: "stone"},
	}))

	time.Sleep(20 * time.Millisecond)

	got, err := repo.Get(ctx, "w1", "l1", pos)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, repo.Count())
}

// TestStagingStats: статистика группируется по слоям мира
func TestStagingStats(t *testing.T) {
	repo := NewMemoryStagingRepo()
	ctx := context.Background()

	for x := 0; x < 3; x++ {
		require.NoError(t, repo.Put(ctx, &StagedBlock{
			WorldID:     "w1",
			LayerDataID: "l1",
			Pos:         vec.Vec3{X: x, Y: 0, Z: 0},
			Block:       block.Block{TypeID: "stone"},
		}))
	}
	require.NoError(t, repo.Put(ctx, &StagedBlock{
		WorldID:     "w2",
		LayerDataID: "l9",
		Pos:         vec.Vec3{X: 0, Y: 0, Z: 0},
		Block:       block.Block{TypeID: "stone"},
	}))

	stats, err := repo.StatsByWorld(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "l1", stats[0].LayerDataID)
	assert.Equal(t, 3, stats[0].Count)
	assert.False(t, stats[0].Latest.Before(stats[0].Earliest))
}
