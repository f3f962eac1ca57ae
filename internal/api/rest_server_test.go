package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/editor"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/worldstore"
)

// testServer собирает REST-сервер на in-memory хранилищах.
type testServer struct {
	server   *RestServer
	layers   *layer.MemoryRepo
	store    *worldstore.MemoryStore
	notifier *transport.MemoryNotifier
	staging  *editor.MemoryStagingRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sessionRepo := editor.NewMemorySessionRepo()
	staging := editor.NewMemoryStagingRepo()
	layers := layer.NewMemoryRepo()
	store := worldstore.NewMemoryStore()
	notifier := transport.NewMemoryNotifier()

	sessions := editor.NewSessionManager(sessionRepo, layers, notifier)
	resolver := editor.NewResolver(sessionRepo, staging, layers, store, store, notifier)
	smoother := editor.NewSmoother(resolver, rand.New(rand.NewSource(1)))
	dispatcher := editor.NewDispatcher(sessions, resolver, smoother, layers, notifier)
	commits := editor.NewCommitPipeline(staging, layers, store, store)

	server := NewRestServer(Config{
		Sessions:   sessions,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Commits:    commits,
	})

	return &testServer{
		server:   server,
		layers:   layers,
		store:    store,
		notifier: notifier,
		staging:  staging,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) GenericResponse {
	t.Helper()
	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestHealth: health-check отвечает без зависимостей
func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestStateRoundTrip: состояние создаётся лениво и обновляется частично
func TestStateRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/worlds/w1/sessions/s1"

	w := ts.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)

	w = ts.do(t, http.MethodPut, base+"/state", map[string]interface{}{
		"edit_mode": true,
		"action":    "MARK_BLOCK",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)

	state, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var got editor.EditState
	require.NoError(t, json.Unmarshal(state, &got))
	assert.True(t, got.EditMode)
	assert.Equal(t, editor.MarkBlock, got.Action)
}

// TestStateRejectsUnknownAction: неизвестный инструмент — 400
func TestStateRejectsUnknownAction(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/worlds/w1/sessions/s1/state", map[string]interface{}{
		"action": "FLY_MODE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestResolveBlockEndpoint: блок из baked-тира виден через API
func TestResolveBlockEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.store.PutBakedBlock("w1", block.Block{Pos: vec.Vec3{X: 3, Y: 4, Z: 5}, TypeID: "stone"})

	w := ts.do(t, http.MethodGet, "/api/worlds/w1/sessions/s1/block?x=3&y=4&z=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	blockData := data["block"].(map[string]interface{})
	assert.Equal(t, "stone", blockData["type_id"])

	prov := data["provenance"].(map[string]interface{})
	assert.Equal(t, true, prov["read_only"])
}

// TestResolveBlockBadQuery: нечисловые координаты — 400
func TestResolveBlockBadQuery(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/worlds/w1/sessions/s1/block?x=a&y=0&z=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDispatchAndDiscardFlow: полный цикл — выбор слоя, правка, discard
func TestDispatchAndDiscardFlow(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/worlds/w1/sessions/s1"

	ts.layers.PutLayer(&layer.Layer{
		WorldID:     "w1",
		Name:        "ground",
		LayerDataID: "ld-ground",
		Type:        layer.Ground,
		Enabled:     true,
	})
	ts.notifier.OpenChannel("w1", "s1")

	w := ts.do(t, http.MethodPut, base+"/state", map[string]interface{}{
		"edit_mode":      true,
		"selected_layer": "ground",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// DELETE ставит воздух в staging
	w = ts.do(t, http.MethodPost, base+"/dispatch", map[string]interface{}{
		"x": 1, "y": 2, "z": 3,
		"action": "DELETE_BLOCK",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "applied", data["outcome"])
	assert.Equal(t, 1, ts.staging.Count())

	// Статистика видит правку
	w = ts.do(t, http.MethodGet, "/api/worlds/w1/staging/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Discard возвращает число удалённых
	w = ts.do(t, http.MethodPost, "/api/worlds/w1/layers/ld-ground/discard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	count := resp.Data.(map[string]interface{})["count"]
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 0, ts.staging.Count())
}

// TestDispatchWithoutChannel: без живого канала исход skipped
func TestDispatchWithoutChannel(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/worlds/w1/sessions/s1/dispatch", map[string]interface{}{
		"x": 0, "y": 0, "z": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "skipped", data["outcome"])
	assert.Equal(t, "no_client_channel", data["reason"])
}

// TestApplyUnknownLayerEndpoint: apply на неизвестный слой — 404
func TestApplyUnknownLayerEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/worlds/w1/layers/ghost/apply", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCloseSessionEndpoint: закрытие сессии идемпотентно
func TestCloseSessionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodDelete, "/api/worlds/w1/sessions/s1", nil)
		assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("попытка %d", i+1))
	}
}
