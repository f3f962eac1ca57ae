package editor

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/voxel-editor/internal/vec"
)

// MemoryStagingRepo реализует StagingRepo в памяти.
// Используется как fallback, когда Redis недоступен,
// или для CI/локальной разработки без внешнего store.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryStagingRepo struct {
	mu      sync.RWMutex
	entries map[string]*StagedBlock // worldID/layerDataID/x:y:z
	ttl     time.Duration
}

// NewMemoryStagingRepo создает репозиторий staged-правок в памяти.
func NewMemoryStagingRepo() *MemoryStagingRepo {
	return &MemoryStagingRepo{
		entries: make(map[string]*StagedBlock),
		ttl:     24 * time.Hour,
	}
}

func stagingKey(worldID, layerDataID string, pos vec.Vec3) string {
	return worldID + "/" + layerDataID + "/" + memberOf(pos)
}

// expired возвращает true для записи, пережившей TTL
func (r *MemoryStagingRepo) expired(entry *StagedBlock) bool {
	return time.Since(entry.ModifiedAt) > r.ttl
}

// Put ставит или перезаписывает правку, сохраняя CreatedAt существующей.
func (r *MemoryStagingRepo) Put(ctx context.Context, entry *StagedBlock) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	now := time.Now().UTC()
	copied := *entry
	copied.Block = entry.Block.Clone()
	copied.ModifiedAt = now
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := stagingKey(entry.WorldID, entry.LayerDataID, entry.Pos)
	if existing, exists := r.entries[key]; exists && !r.expired(existing) {
		copied.CreatedAt = existing.CreatedAt
	}
	r.entries[key] = &copied

	entry.CreatedAt = copied.CreatedAt
	entry.ModifiedAt = copied.ModifiedAt
	return nil
}

// Get возвращает правку или nil, если её нет.
func (r *MemoryStagingRepo) Get(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) (*StagedBlock, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[stagingKey(worldID, layerDataID, pos)]
	if !exists || r.expired(entry) {
		return nil, nil
	}

	copied := *entry
	copied.Block = entry.Block.Clone()
	return &copied, nil
}

// ListByLayer возвращает снимок всех правок слоя.
func (r *MemoryStagingRepo) ListByLayer(ctx context.Context, worldID, layerDataID string) ([]*StagedBlock, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*StagedBlock, 0)
	for _, entry := range r.entries {
		if entry.WorldID == worldID && entry.LayerDataID == layerDataID && !r.expired(entry) {
			copied := *entry
			copied.Block = entry.Block.Clone()
			result = append(result, &copied)
		}
	}
	return result, nil
}

// DeleteByLayer удаляет все правки слоя и возвращает число удалённых.
func (r *MemoryStagingRepo) DeleteByLayer(ctx context.Context, worldID, layerDataID string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key, entry := range r.entries {
		if entry.WorldID == worldID && entry.LayerDataID == layerDataID {
			if !r.expired(entry) {
				count++
			}
			delete(r.entries, key)
		}
	}
	return count, nil
}

// Delete удаляет одну правку.
func (r *MemoryStagingRepo) Delete(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, stagingKey(worldID, layerDataID, pos))
	return nil
}

// StatsByWorld возвращает статистику staged-правок по слоям мира.
func (r *MemoryStagingRepo) StatsByWorld(ctx context.Context, worldID string) ([]*LayerStats, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	byLayer := make(map[string][]*StagedBlock)
	for _, entry := range r.entries {
		if entry.WorldID == worldID && !r.expired(entry) {
			byLayer[entry.LayerDataID] = append(byLayer[entry.LayerDataID], entry)
		}
	}

	result := make([]*LayerStats, 0, len(byLayer))
	for layerDataID, entries := range byLayer {
		result = append(result, statsFromEntries(layerDataID, entries))
	}
	return result, nil
}

// Count возвращает число живых правок (для отладки).
func (r *MemoryStagingRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.entries {
		if !r.expired(entry) {
			count++
		}
	}
	return count
}
