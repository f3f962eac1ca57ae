package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/vec"
)

// applyTimeout ограничивает фоновый merge одного apply-запроса.
const applyTimeout = 5 * time.Minute

// TerrainWriter — пишущая часть хранилища GROUND-слоёв, нужная пайплайну.
type TerrainWriter interface {
	LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error)
	SaveTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2, blocks []block.Block) error
}

// DirtyMarker помечает чанки на пересборку baked-тира.
type DirtyMarker interface {
	MarkChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) error
}

// CommitPipeline переносит staged-правки в содержимое слоя (apply)
// или удаляет их без применения (discard).
// Apply асинхронный: вызов возвращается сразу, merge идёт в фоне;
// discard синхронный и отдаёт число удалённых правок.
type CommitPipeline struct {
	staging StagingRepo
	layers  layer.Repo
	terrain TerrainWriter
	dirty   DirtyMarker
	log     *logging.Logger
}

// NewCommitPipeline создаёт пайплайн.
func NewCommitPipeline(staging StagingRepo, layers layer.Repo, terrain TerrainWriter, dirty DirtyMarker) *CommitPipeline {
	return &CommitPipeline{
		staging: staging,
		layers:  layers,
		terrain: terrain,
		dirty:   dirty,
		log:     logging.GetEditorLogger(),
	}
}

// ApplyChanges планирует перенос всех staged-правок слоя в его содержимое.
// Слой, который не удаётся разрешить, — ошибка до каких-либо изменений.
// Снимок правок фиксируется на момент вызова: правки, записанные во время
// merge, попадут в следующий apply.
func (p *CommitPipeline) ApplyChanges(ctx context.Context, worldID, layerDataID string) error {
	l, err := p.layers.FindLayerByDataID(ctx, worldID, layerDataID)
	if errors.Is(err, layer.ErrNotFound) {
		return fmt.Errorf("layer %s/%s not found: %w", worldID, layerDataID, err)
	}
	if err != nil {
		return fmt.Errorf("layer lookup failed: %w", err)
	}

	entries, err := p.staging.ListByLayer(ctx, worldID, layerDataID)
	if err != nil {
		return fmt.Errorf("staging snapshot failed: %w", err)
	}
	if len(entries) == 0 {
		p.log.Debug("Apply без staged-правок: мир=%s слой=%s", worldID, layerDataID)
		return nil
	}

	commitTotal.WithLabelValues("apply").Inc()
	p.log.Info("Apply запланирован: мир=%s слой=%s правок=%d", worldID, layerDataID, len(entries))

	// Запросный контекст умирает вместе с HTTP-вызовом; merge живёт своим
	go func() {
		mctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()

		if err := p.merge(mctx, l, entries); err != nil {
			p.log.Error("Apply merge завершился ошибкой: мир=%s слой=%s: %v", worldID, layerDataID, err)
			return
		}

		p.publish(mctx, eventbus.EventLayerApplied, map[string]interface{}{
			"world_id":      worldID,
			"layer_data_id": layerDataID,
			"entries":       len(entries),
		})
		p.log.Info("Apply завершён: мир=%s слой=%s правок=%d", worldID, layerDataID, len(entries))
	}()

	return nil
}

// merge применяет снимок правок к содержимому слоя и чистит staging.
func (p *CommitPipeline) merge(ctx context.Context, l *layer.Layer, entries []*StagedBlock) error {
	switch l.Type {
	case layer.Ground:
		if err := p.mergeGround(ctx, l, entries); err != nil {
			return err
		}
	case layer.Model:
		if err := p.mergeModel(ctx, l, entries); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown layer type %d", l.Type)
	}

	p.markDirty(ctx, l.WorldID, entries)

	// Очистка staging последней: пустой staging означает завершённый merge
	for _, e := range entries {
		if err := p.staging.Delete(ctx, e.WorldID, e.LayerDataID, e.Pos); err != nil {
			p.log.Warn("Не удалось удалить staged-правку %v после мержа: %v", e.Pos, err)
		}
	}
	return nil
}

// mergeGround группирует правки по чанкам и переписывает сегменты слоя:
// не-воздух апсертится по координате, воздух удаляет блок.
func (p *CommitPipeline) mergeGround(ctx context.Context, l *layer.Layer, entries []*StagedBlock) error {
	byChunk := make(map[vec.Vec2][]*StagedBlock)
	for _, e := range entries {
		ck := e.Pos.ToChunkCoords()
		byChunk[ck] = append(byChunk[ck], e)
	}

	for ck, chunkEntries := range byChunk {
		segment, err := p.terrain.LoadTerrainSegment(ctx, l.WorldID, l.LayerDataID, ck)
		if err != nil {
			return fmt.Errorf("segment %s load failed: %w", ck.Key(), err)
		}

		for _, e := range chunkEntries {
			segment = upsertBlock(segment, e.Pos, e.Block)
		}

		if err := p.terrain.SaveTerrainSegment(ctx, l.WorldID, l.LayerDataID, ck, segment); err != nil {
			return fmt.Errorf("segment %s save failed: %w", ck.Key(), err)
		}
	}
	return nil
}

// mergeModel переписывает содержимое модели: правки переводятся
// в локальную систему координат слоя и апсертятся в content.
func (p *CommitPipeline) mergeModel(ctx context.Context, l *layer.Layer, entries []*StagedBlock) error {
	model, err := p.layers.FindModel(ctx, l.LayerDataID)
	if err != nil {
		return fmt.Errorf("model %s load failed: %w", l.LayerDataID, err)
	}

	for _, e := range entries {
		local := e.Block.Clone()
		local.Pos = layer.ToLayerLocal(model, e.Pos)
		model.Content = upsertBlock(model.Content, local.Pos, local)
	}

	if err := p.layers.SaveModel(ctx, model); err != nil {
		return fmt.Errorf("model %s save failed: %w", l.LayerDataID, err)
	}
	return nil
}

// upsertBlock заменяет блок на позиции pos или добавляет его.
// Воздух означает удаление: блок убирается из среза.
func upsertBlock(blocks []block.Block, pos vec.Vec3, b block.Block) []block.Block {
	for i := range blocks {
		if blocks[i].Pos.Equals(pos) {
			if b.IsAir() {
				return append(blocks[:i], blocks[i+1:]...)
			}
			blocks[i] = b
			return blocks
		}
	}
	if b.IsAir() {
		return blocks
	}
	return append(blocks, b)
}

// DiscardChanges синхронно удаляет все staged-правки слоя
// и возвращает число удалённых. Затронутые чанки помечаются на
// перерисовку из последнего закоммиченного состояния.
func (p *CommitPipeline) DiscardChanges(ctx context.Context, worldID, layerDataID string) (int, error) {
	if _, err := p.layers.FindLayerByDataID(ctx, worldID, layerDataID); err != nil {
		return 0, fmt.Errorf("layer lookup failed: %w", err)
	}

	// Снимок до удаления: по нему вычисляем затронутые чанки
	entries, err := p.staging.ListByLayer(ctx, worldID, layerDataID)
	if err != nil {
		return 0, fmt.Errorf("staging snapshot failed: %w", err)
	}

	count, err := p.staging.DeleteByLayer(ctx, worldID, layerDataID)
	if err != nil {
		return 0, fmt.Errorf("staging delete failed: %w", err)
	}

	p.markDirty(ctx, worldID, entries)
	commitTotal.WithLabelValues("discard").Inc()

	p.publish(ctx, eventbus.EventLayerDiscard, map[string]interface{}{
		"world_id":      worldID,
		"layer_data_id": layerDataID,
		"entries":       count,
	})

	p.log.Info("Discard завершён: мир=%s слой=%s правок=%d", worldID, layerDataID, count)
	return count, nil
}

// GetStatistics возвращает по каждому слою мира число staged-правок
// и временные границы. Чисто операторская видимость.
func (p *CommitPipeline) GetStatistics(ctx context.Context, worldID string) ([]*LayerStats, error) {
	return p.staging.StatsByWorld(ctx, worldID)
}

// markDirty помечает каждый затронутый чанк ровно один раз.
func (p *CommitPipeline) markDirty(ctx context.Context, worldID string, entries []*StagedBlock) {
	seen := make(map[vec.Vec2]bool)
	for _, e := range entries {
		ck := e.Pos.ToChunkCoords()
		if seen[ck] {
			continue
		}
		seen[ck] = true
		if err := p.dirty.MarkChunkDirty(ctx, worldID, ck); err != nil {
			p.log.Warn("Не удалось пометить чанк %s как dirty: %v", ck.Key(), err)
		}
	}
}

// publish отправляет событие в глобальную шину best-effort.
func (p *CommitPipeline) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	ev, err := eventbus.NewEnvelope("voxel-editor", eventType, payload)
	if err != nil {
		return
	}
	if err := eventbus.Publish(ctx, ev); err != nil {
		p.log.Debug("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}
