package worldstore

import (
	"context"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// TerrainStore хранит содержимое GROUND-слоёв посегментно (чанк 16x16 по X/Z).
type TerrainStore interface {
	// LoadTerrainSegment загружает блоки сегмента слоя.
	// Отсутствующий сегмент — не ошибка: возвращается пустой срез.
	LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error)

	// SaveTerrainSegment перезаписывает блоки сегмента слоя.
	SaveTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2, blocks []block.Block) error
}

// BakedStore отдаёт скомпонованные (baked) чанки мира.
// С точки зрения редактора данные read-only.
type BakedStore interface {
	// LoadBakedChunk загружает блоки baked-чанка.
	// Отсутствующий чанк — не ошибка: возвращается пустой срез.
	LoadBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2) ([]block.Block, error)
}

// DirtyMarker помечает чанки, требующие пересборки после commit/discard.
type DirtyMarker interface {
	MarkChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) error
}
