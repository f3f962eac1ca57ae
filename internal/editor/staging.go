package editor

import (
	"context"
	"time"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// StagedBlock — одна незакоммиченная правка: снимок блока на координате слоя.
// Ключ (worldID, layerDataID, pos) уникален: запись перезаписывается целиком,
// поля между записями не сливаются.
type StagedBlock struct {
	WorldID     string      `json:"world_id"`
	LayerDataID string      `json:"layer_data_id"`
	Pos         vec.Vec3    `json:"pos"`
	Block       block.Block `json:"block"`
	CreatedAt   time.Time   `json:"created_at"`
	ModifiedAt  time.Time   `json:"modified_at"`
}

// LayerStats — статистика staged-правок одного слоя (для операторской видимости).
type LayerStats struct {
	LayerDataID string    `json:"layer_data_id"`
	Count       int       `json:"count"`
	Earliest    time.Time `json:"earliest"`
	Latest      time.Time `json:"latest"`
}

// StagingRepo — хранилище незакоммиченных правок (оверлей верхнего тира).
// Правки привязаны к слою, не к сессии: сессии, редактирующие один слой,
// видят и перезаписывают правки друг друга (last-write-wins).
type StagingRepo interface {
	// Put ставит или перезаписывает правку по её ключу.
	// CreatedAt существующей записи сохраняется, ModifiedAt обновляется.
	Put(ctx context.Context, entry *StagedBlock) error

	// Get возвращает правку или nil, если её нет.
	Get(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) (*StagedBlock, error)

	// ListByLayer возвращает снимок всех правок слоя на момент вызова.
	ListByLayer(ctx context.Context, worldID, layerDataID string) ([]*StagedBlock, error)

	// DeleteByLayer удаляет все правки слоя и возвращает число удалённых.
	DeleteByLayer(ctx context.Context, worldID, layerDataID string) (int, error)

	// Delete удаляет одну правку (используется apply после мержа записи).
	Delete(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) error

	// StatsByWorld возвращает статистику по каждому слою мира,
	// имеющему staged-правки.
	StatsByWorld(ctx context.Context, worldID string) ([]*LayerStats, error)
}
