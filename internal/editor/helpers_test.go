package editor

import (
	"context"
	"math/rand"
	"testing"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/stretchr/testify/require"
)

// fixture собирает редактор на in-memory реализациях всех хранилищ.
type fixture struct {
	sessionRepo *MemorySessionRepo
	staging     *MemoryStagingRepo
	layers      *layer.MemoryRepo
	store       *worldMemoryStore
	notifier    *transport.MemoryNotifier

	sessions   *SessionManager
	resolver   *Resolver
	smoother   *Smoother
	dispatcher *Dispatcher
	commits    *CommitPipeline
}

// worldMemoryStore — минимальное in-memory хранилище чанков для тестов пакета.
// Дублирует поведение worldstore.MemoryStore, но без импорта пакета,
// чтобы тесты editor не зависели от его внутренностей.
type worldMemoryStore struct {
	terrain map[string][]block.Block
	baked   map[string][]block.Block
	dirty   map[string]bool
}

func newWorldMemoryStore() *worldMemoryStore {
	return &worldMemoryStore{
		terrain: make(map[string][]block.Block),
		baked:   make(map[string][]block.Block),
		dirty:   make(map[string]bool),
	}
}

func (ws *worldMemoryStore) terrainKey(worldID, layerDataID string, chunk vec.Vec2) string {
	return worldID + "/" + layerDataID + "/" + chunk.Key()
}

func (ws *worldMemoryStore) LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error) {
	blocks := ws.terrain[ws.terrainKey(worldID, layerDataID, chunk)]
	return append([]block.Block(nil), blocks...), nil
}

func (ws *worldMemoryStore) SaveTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2, blocks []block.Block) error {
	ws.terrain[ws.terrainKey(worldID, layerDataID, chunk)] = append([]block.Block(nil), blocks...)
	return nil
}

func (ws *worldMemoryStore) LoadBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2) ([]block.Block, error) {
	blocks := ws.baked[worldID+"/"+chunk.Key()]
	return append([]block.Block(nil), blocks...), nil
}

func (ws *worldMemoryStore) MarkChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) error {
	ws.dirty[worldID+"/"+chunk.Key()] = true
	return nil
}

func (ws *worldMemoryStore) putBaked(worldID string, b block.Block) {
	key := worldID + "/" + b.Pos.ToChunkCoords().Key()
	ws.baked[key] = append(ws.baked[key], b)
}

func (ws *worldMemoryStore) removeBaked(worldID string, pos vec.Vec3) {
	key := worldID + "/" + pos.ToChunkCoords().Key()
	blocks := ws.baked[key]
	for i := range blocks {
		if blocks[i].Pos.Equals(pos) {
			ws.baked[key] = append(blocks[:i], blocks[i+1:]...)
			return
		}
	}
}

func (ws *worldMemoryStore) putTerrain(worldID, layerDataID string, b block.Block) {
	key := ws.terrainKey(worldID, layerDataID, b.Pos.ToChunkCoords())
	ws.terrain[key] = append(ws.terrain[key], b)
}

func (ws *worldMemoryStore) removeTerrain(worldID, layerDataID string, pos vec.Vec3) {
	key := ws.terrainKey(worldID, layerDataID, pos.ToChunkCoords())
	blocks := ws.terrain[key]
	for i := range blocks {
		if blocks[i].Pos.Equals(pos) {
			ws.terrain[key] = append(blocks[:i], blocks[i+1:]...)
			return
		}
	}
}

// newFixture собирает редактор с детерминированным источником случайности.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessionRepo: NewMemorySessionRepo(),
		staging:     NewMemoryStagingRepo(),
		layers:      layer.NewMemoryRepo(),
		store:       newWorldMemoryStore(),
		notifier:    transport.NewMemoryNotifier(),
	}

	f.sessions = NewSessionManager(f.sessionRepo, f.layers, f.notifier)
	f.resolver = NewResolver(f.sessionRepo, f.staging, f.layers, f.store, f.store, f.notifier)
	f.smoother = NewSmoother(f.resolver, rand.New(rand.NewSource(1)))
	f.dispatcher = NewDispatcher(f.sessions, f.resolver, f.smoother, f.layers, f.notifier)
	f.commits = NewCommitPipeline(f.staging, f.layers, f.store, f.store)

	return f
}

// addGroundLayer регистрирует GROUND-слой и возвращает его layerDataID.
func (f *fixture) addGroundLayer(worldID, name string) string {
	dataID := "ld-" + name
	f.layers.PutLayer(&layer.Layer{
		WorldID:     worldID,
		Name:        name,
		LayerDataID: dataID,
		Type:        layer.Ground,
		Enabled:     true,
	})
	return dataID
}

// addModelLayer регистрирует MODEL-слой с содержимым модели.
func (f *fixture) addModelLayer(worldID, name string, model *layer.LayerModel) string {
	f.layers.PutLayer(&layer.Layer{
		WorldID:     worldID,
		Name:        name,
		LayerDataID: model.LayerDataID,
		Type:        layer.Model,
		Enabled:     true,
	})
	f.layers.PutModel(model)
	return model.LayerDataID
}

// selectLayer выбирает слой в сессии и открывает клиентский канал.
func (f *fixture) selectLayer(t *testing.T, worldID, sessionID, layerName string) {
	t.Helper()

	f.notifier.OpenChannel(worldID, sessionID)
	_, err := f.sessions.Update(context.Background(), worldID, sessionID, func(s *EditState) {
		s.EditMode = true
		s.SelectedLayer = layerName
	})
	require.NoError(t, err)
}

// cube возвращает кубический блок с одинаковыми офсетами.
func cube(pos vec.Vec3, typeID string, offset float64) block.Block {
	offsets := make([]float64, block.OffsetCount)
	for i := range offsets {
		offsets[i] = offset
	}
	return block.Block{Pos: pos, TypeID: typeID, Offsets: offsets}
}
