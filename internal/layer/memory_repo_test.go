package layer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// TestFindLayer: поиск по миру и имени; отсутствие — ErrNotFound
func TestFindLayer(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	repo.PutLayer(&Layer{WorldID: "w1", Name: "ground", LayerDataID: "ld-1", Type: Ground, Enabled: true})

	l, err := repo.FindLayer(ctx, "w1", "ground")
	require.NoError(t, err)
	assert.Equal(t, "ld-1", l.LayerDataID)

	_, err = repo.FindLayer(ctx, "w1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindLayer(ctx, "w2", "ground")
	assert.ErrorIs(t, err, ErrNotFound, "слой другого мира не должен находиться")
}

// TestFindLayerByDataID: обратный поиск по layerDataID
func TestFindLayerByDataID(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	repo.PutLayer(&Layer{WorldID: "w1", Name: "ground", LayerDataID: "ld-1", Type: Ground})
	repo.PutLayer(&Layer{WorldID: "w1", Name: "caves", LayerDataID: "ld-2", Type: Ground})

	l, err := repo.FindLayerByDataID(ctx, "w1", "ld-2")
	require.NoError(t, err)
	assert.Equal(t, "caves", l.Name)

	_, err = repo.FindLayerByDataID(ctx, "w1", "ld-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestFindLayersByWorld: перечисление слоёв мира
func TestFindLayersByWorld(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	repo.PutLayer(&Layer{WorldID: "w1", Name: "a", LayerDataID: "ld-a"})
	repo.PutLayer(&Layer{WorldID: "w1", Name: "b", LayerDataID: "ld-b"})
	repo.PutLayer(&Layer{WorldID: "w2", Name: "c", LayerDataID: "ld-c"})

	layers, err := repo.FindLayersByWorld(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, layers, 2)
}

// TestModelSaveAndFind: содержимое модели сохраняется с защитной копией
func TestModelSaveAndFind(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	model := &LayerModel{
		LayerDataID: "ld-house",
		Name:        "house",
		Rotation:    1,
		Content: []block.Block{
			{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}, TypeID: "plank"},
		},
		Groups: map[string]int{"walls": 1},
	}
	require.NoError(t, repo.SaveModel(ctx, model))

	got, err := repo.FindModel(ctx, "ld-house")
	require.NoError(t, err)
	assert.Equal(t, "house", got.Name)
	require.Len(t, got.Content, 1)

	// Мутация возвращённой копии не влияет на хранимое содержимое
	got.Content[0].TypeID = "brick"
	again, err := repo.FindModel(ctx, "ld-house")
	require.NoError(t, err)
	assert.Equal(t, "plank", again.Content[0].TypeID)
}
