package worldstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-editor/internal/vec"
)

// TestGenerateChunkDeterministic: один сид — одинаковый террейн
func TestGenerateChunkDeterministic(t *testing.T) {
	ctx := context.Background()
	chunk := vec.Vec2{X: 0, Z: 0}

	store1 := NewMemoryStore()
	store2 := NewMemoryStore()

	require.NoError(t, NewDevGenerator(42).GenerateChunk(ctx, store1, "w1", chunk))
	require.NoError(t, NewDevGenerator(42).GenerateChunk(ctx, store2, "w1", chunk))

	blocks1, err := store1.LoadBakedChunk(ctx, "w1", chunk)
	require.NoError(t, err)
	blocks2, err := store2.LoadBakedChunk(ctx, "w1", chunk)
	require.NoError(t, err)

	assert.Equal(t, blocks1, blocks2)
	assert.NotEmpty(t, blocks1)
}

// TestGenerateChunkColumns: каждая колонна — камень, земля, травяной куб сверху
func TestGenerateChunkColumns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	chunk := vec.Vec2{X: 1, Z: -1}

	require.NoError(t, NewDevGenerator(7).GenerateChunk(ctx, store, "w1", chunk))

	blocks, err := store.LoadBakedChunk(ctx, "w1", chunk)
	require.NoError(t, err)

	// Верх каждой колонны — деформируемый куб травы
	top := make(map[[2]int]int)
	for _, b := range blocks {
		key := [2]int{b.Pos.X, b.Pos.Z}
		if b.Pos.Y > top[key] {
			top[key] = b.Pos.Y
		}

		// Все блоки чанка лежат в его границах
		assert.Equal(t, chunk, b.Pos.ToChunkCoords(), "блок %v вне чанка", b.Pos)
	}
	assert.Len(t, top, 16*16)

	for _, b := range blocks {
		key := [2]int{b.Pos.X, b.Pos.Z}
		if b.Pos.Y == top[key] {
			assert.Equal(t, "grass", b.TypeID)
			assert.True(t, b.IsCube(), "поверхностный блок должен быть кубом")
		} else {
			assert.False(t, b.IsCube())
		}
	}
}

// TestGenerateArea: область (2r+1)^2 чанков вокруг нуля
func TestGenerateArea(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, NewDevGenerator(1).GenerateArea(ctx, store, "w1", 1))

	for cx := -1; cx <= 1; cx++ {
		for cz := -1; cz <= 1; cz++ {
			blocks, err := store.LoadBakedChunk(ctx, "w1", vec.Vec2{X: cx, Z: cz})
			require.NoError(t, err)
			assert.NotEmpty(t, blocks, "чанк %d:%d пуст", cx, cz)
		}
	}
}
