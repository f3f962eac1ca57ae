package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/vec"
)

// Tier указывает, какой тир данных ответил на запрос блока.
type Tier int

const (
	TierStaging Tier = iota // Незакоммиченная правка
	TierLayer               // Содержимое выбранного слоя
	TierBaked               // Скомпонованный мир
	TierAir                 // Синтезированный пустой блок
)

// String возвращает строковое представление тира
func (t Tier) String() string {
	switch t {
	case TierStaging:
		return "staging"
	case TierLayer:
		return "layer"
	case TierBaked:
		return "baked"
	case TierAir:
		return "air"
	default:
		return "unknown"
	}
}

// Provenance сообщает, откуда взялся блок и можно ли его редактировать напрямую.
type Provenance struct {
	Source   Tier `json:"source"`
	ReadOnly bool `json:"read_only"`
}

// ErrNoLayerSelected возвращается write-путём при отсутствии выбранного слоя.
var ErrNoLayerSelected = errors.New("no layer selected")

// Resolver — разрешение эффективного блока по координате и стандартный
// write-путь. Приоритет чтения полный и взаимоисключающий:
// staging -> выбранный слой -> baked -> воздух; полей между тирами не сливаем.
type Resolver struct {
	sessions SessionRepo
	staging  StagingRepo
	layers   layer.Repo
	terrain  TerrainReader
	baked    BakedReader
	notifier transport.ClientNotifier
	log      *logging.Logger
}

// TerrainReader — читающая часть хранилища GROUND-слоёв.
type TerrainReader interface {
	LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error)
}

// BakedReader — читающая часть baked-хранилища.
type BakedReader interface {
	LoadBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2) ([]block.Block, error)
}

// NewResolver создаёт resolver.
func NewResolver(sessions SessionRepo, staging StagingRepo, layers layer.Repo, terrain TerrainReader, baked BakedReader, notifier transport.ClientNotifier) *Resolver {
	return &Resolver{
		sessions: sessions,
		staging:  staging,
		layers:   layers,
		terrain:  terrain,
		baked:    baked,
		notifier: notifier,
		log:      logging.GetEditorLogger(),
	}
}

// Resolve возвращает эффективный блок на координате и его происхождение.
// «Блок не найден» — не ошибка: это штатный путь до синтезированного воздуха.
func (r *Resolver) Resolve(ctx context.Context, worldID, sessionID string, pos vec.Vec3) (block.Block, Provenance, error) {
	state, err := r.sessions.Get(ctx, worldID, sessionID)
	if err != nil {
		return block.Block{}, Provenance{}, fmt.Errorf("failed to load session: %w", err)
	}

	var selected *layer.Layer
	if state.HasLayerSelected() {
		selected, err = r.layers.FindLayer(ctx, worldID, state.SelectedLayer)
		if err != nil && !errors.Is(err, layer.ErrNotFound) {
			return block.Block{}, Provenance{}, fmt.Errorf("failed to load layer: %w", err)
		}
		if selected == nil {
			r.log.Warn("Выбранный слой %s/%s не найден, чтение продолжается с baked-тира",
				worldID, state.SelectedLayer)
		}
	}

	// Тир 1: незакоммиченные правки выбранного слоя
	if selected != nil {
		staged, err := r.staging.Get(ctx, worldID, selected.LayerDataID, pos)
		if err != nil {
			return block.Block{}, Provenance{}, fmt.Errorf("staging lookup failed: %w", err)
		}
		if staged != nil {
			resolveTier.WithLabelValues(TierStaging.String()).Inc()
			return staged.Block.Clone(), Provenance{Source: TierStaging, ReadOnly: false}, nil
		}

		// Тир 2: содержимое самого слоя
		found, ok, err := r.resolveFromLayer(ctx, worldID, selected, pos)
		if err != nil {
			return block.Block{}, Provenance{}, err
		}
		if ok {
			resolveTier.WithLabelValues(TierLayer.String()).Inc()
			return found, Provenance{Source: TierLayer, ReadOnly: false}, nil
		}
	}

	// Тир 3: скомпонованный мир. При выбранном слое результат считается
	// promotable: последующий CLONE/PASTE переведёт его в staging.
	readOnly := selected == nil
	chunk, err := r.baked.LoadBakedChunk(ctx, worldID, pos.ToChunkCoords())
	if err != nil {
		return block.Block{}, Provenance{}, fmt.Errorf("baked lookup failed: %w", err)
	}
	for i := range chunk {
		if chunk[i].Pos.Equals(pos) {
			resolveTier.WithLabelValues(TierBaked.String()).Inc()
			return chunk[i].Clone(), Provenance{Source: TierBaked, ReadOnly: readOnly}, nil
		}
	}

	// Тир 4: воздух
	resolveTier.WithLabelValues(TierAir.String()).Inc()
	return block.Air(pos), Provenance{Source: TierAir, ReadOnly: readOnly}, nil
}

// resolveFromLayer ищет блок в содержимом слоя (тир 2)
func (r *Resolver) resolveFromLayer(ctx context.Context, worldID string, l *layer.Layer, pos vec.Vec3) (block.Block, bool, error) {
	switch l.Type {
	case layer.Ground:
		segment, err := r.terrain.LoadTerrainSegment(ctx, worldID, l.LayerDataID, pos.ToChunkCoords())
		if err != nil {
			return block.Block{}, false, fmt.Errorf("terrain segment load failed: %w", err)
		}
		for i := range segment {
			if segment[i].Pos.Equals(pos) {
				return segment[i].Clone(), true, nil
			}
		}
		return block.Block{}, false, nil

	case layer.Model:
		model, err := r.layers.FindModel(ctx, l.LayerDataID)
		if errors.Is(err, layer.ErrNotFound) {
			return block.Block{}, false, nil
		}
		if err != nil {
			return block.Block{}, false, fmt.Errorf("model load failed: %w", err)
		}

		local := layer.ToLayerLocal(model, pos)
		for i := range model.Content {
			if model.Content[i].Pos.Equals(local) {
				// Позиция найденного блока возвращается в мировой системе
				found := model.Content[i].Clone()
				found.Pos = layer.ToWorld(model, found.Pos)
				return found, true, nil
			}
		}
		return block.Block{}, false, nil

	default:
		return block.Block{}, false, nil
	}
}

// Write — стандартный write-путь: единственная точка, через которую идут
// все мутации (PASTE/DELETE/CLONE/сглаживание). Пишет только в staging-тир,
// что даёт copy-on-write поверх слоя и baked-мира без особых случаев.
func (r *Resolver) Write(ctx context.Context, worldID, sessionID string, b block.Block, pos vec.Vec3) Outcome {
	state, err := r.sessions.Get(ctx, worldID, sessionID)
	if err != nil {
		return Failed(fmt.Errorf("failed to load session: %w", err))
	}

	if !state.HasLayerSelected() {
		r.log.Warn("Запись без выбранного слоя: мир=%s сессия=%s", worldID, sessionID)
		return Skipped(SkipNoLayerSelected)
	}

	selected, err := r.layers.FindLayer(ctx, worldID, state.SelectedLayer)
	if errors.Is(err, layer.ErrNotFound) {
		r.log.Warn("Слой %s/%s не найден при записи", worldID, state.SelectedLayer)
		return Skipped(SkipLayerNotFound)
	}
	if err != nil {
		return Failed(fmt.Errorf("failed to load layer: %w", err))
	}

	// Штампуем позицию: запись всегда адресует целевую координату
	staged := b.Clone()
	staged.Pos = pos

	// Для MODEL-слоёв имя модели нужно клиенту для отображения; best-effort
	modelName := ""
	if selected.Type == layer.Model {
		if model, err := r.layers.FindModel(ctx, selected.LayerDataID); err == nil {
			modelName = model.Name
		}
	}

	entry := &StagedBlock{
		WorldID:     worldID,
		LayerDataID: selected.LayerDataID,
		Pos:         pos,
		Block:       staged,
	}
	if err := r.staging.Put(ctx, entry); err != nil {
		return Failed(fmt.Errorf("staging put failed: %w", err))
	}

	stagedWrites.Inc()

	// Уведомление клиента best-effort: сбой доставки не откатывает запись
	if r.notifier != nil {
		err := r.notifier.SendToClient(ctx, worldID, sessionID, "block_changed", map[string]interface{}{
			"pos":        pos,
			"layer":      state.SelectedLayer,
			"model_name": modelName,
			"type_id":    staged.TypeID,
		})
		if err != nil {
			r.log.Debug("Не удалось уведомить клиента об изменении блока: %v", err)
		}
	}

	return Applied()
}
