package worldstore

import (
	"context"
	"sync"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// MemoryStore реализует TerrainStore, BakedStore и DirtyMarker в памяти.
// Используется в тестах и при локальной разработке без BadgerDB.
type MemoryStore struct {
	mu      sync.RWMutex
	terrain map[string][]block.Block // worldID/layerDataID/chunkKey -> блоки
	baked   map[string][]block.Block // worldID/chunkKey -> блоки
	dirty   map[string]struct{}      // worldID/chunkKey
}

// NewMemoryStore создает пустое хранилище чанков в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		terrain: make(map[string][]block.Block),
		baked:   make(map[string][]block.Block),
		dirty:   make(map[string]struct{}),
	}
}

func (ms *MemoryStore) terrainKey(worldID, layerDataID string, chunk vec.Vec2) string {
	return worldID + "/" + layerDataID + "/" + chunk.Key()
}

func (ms *MemoryStore) bakedKey(worldID string, chunk vec.Vec2) string {
	return worldID + "/" + chunk.Key()
}

// LoadTerrainSegment загружает блоки сегмента слоя.
func (ms *MemoryStore) LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	blocks := ms.terrain[ms.terrainKey(worldID, layerDataID, chunk)]
	result := make([]block.Block, len(blocks))
	copy(result, blocks)
	return result, nil
}

// SaveTerrainSegment перезаписывает блоки сегмента слоя.
func (ms *MemoryStore) SaveTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2, blocks []block.Block) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := make([]block.Block, len(blocks))
	copy(copied, blocks)
	ms.terrain[ms.terrainKey(worldID, layerDataID, chunk)] = copied
	return nil
}

// LoadBakedChunk загружает блоки baked-чанка.
func (ms *MemoryStore) LoadBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2) ([]block.Block, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	blocks := ms.baked[ms.bakedKey(worldID, chunk)]
	result := make([]block.Block, len(blocks))
	copy(result, blocks)
	return result, nil
}

// SaveBakedChunk перезаписывает baked-чанк целиком (для генератора dev-мира).
func (ms *MemoryStore) SaveBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2, blocks []block.Block) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := make([]block.Block, len(blocks))
	copy(copied, blocks)
	ms.baked[ms.bakedKey(worldID, chunk)] = copied
	return nil
}

// PutBakedBlock добавляет блок в baked-чанк (для тестов и генератора).
func (ms *MemoryStore) PutBakedBlock(worldID string, b block.Block) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := ms.bakedKey(worldID, b.Pos.ToChunkCoords())
	blocks := ms.baked[key]

	// Замена по позиции, чтобы не плодить дубликаты
	for i := range blocks {
		if blocks[i].Pos.Equals(b.Pos) {
			blocks[i] = b
			ms.baked[key] = blocks
			return
		}
	}
	ms.baked[key] = append(blocks, b)
}

// PutTerrainBlock добавляет блок в сегмент слоя (для тестов).
func (ms *MemoryStore) PutTerrainBlock(worldID, layerDataID string, b block.Block) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := ms.terrainKey(worldID, layerDataID, b.Pos.ToChunkCoords())
	blocks := ms.terrain[key]

	for i := range blocks {
		if blocks[i].Pos.Equals(b.Pos) {
			blocks[i] = b
			ms.terrain[key] = blocks
			return
		}
	}
	ms.terrain[key] = append(blocks, b)
}

// RemoveBakedBlock удаляет блок из baked-чанка (для тестов fallback-цепочки).
func (ms *MemoryStore) RemoveBakedBlock(worldID string, pos vec.Vec3) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := ms.bakedKey(worldID, pos.ToChunkCoords())
	blocks := ms.baked[key]
	for i := range blocks {
		if blocks[i].Pos.Equals(pos) {
			ms.baked[key] = append(blocks[:i], blocks[i+1:]...)
			return
		}
	}
}

// MarkChunkDirty помечает чанк как требующий пересборки.
func (ms *MemoryStore) MarkChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.dirty[ms.bakedKey(worldID, chunk)] = struct{}{}
	return nil
}

// DirtyChunks возвращает ключи помеченных чанков (для тестов и отладки).
func (ms *MemoryStore) DirtyChunks() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make([]string, 0, len(ms.dirty))
	for key := range ms.dirty {
		result = append(result, key)
	}
	return result
}
