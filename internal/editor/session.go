package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/vec"
)

// EditAction — текущий инструмент редактора.
// Это селектор, а не конечный автомат: любое значение может
// сменить любое другое по явному выбору редактора.
type EditAction int

const (
	OpenConfigDialog EditAction = iota
	OpenEditor
	MarkBlock
	PasteBlock
	DeleteBlock
	CloneBlock
	SmoothBlocks
	RoughBlocks
)

// String возвращает строковое представление инструмента
func (a EditAction) String() string {
	switch a {
	case OpenConfigDialog:
		return "OPEN_CONFIG_DIALOG"
	case OpenEditor:
		return "OPEN_EDITOR"
	case MarkBlock:
		return "MARK_BLOCK"
	case PasteBlock:
		return "PASTE_BLOCK"
	case DeleteBlock:
		return "DELETE_BLOCK"
	case CloneBlock:
		return "CLONE_BLOCK"
	case SmoothBlocks:
		return "SMOOTH_BLOCKS"
	case RoughBlocks:
		return "ROUGH_BLOCKS"
	default:
		return "UNKNOWN"
	}
}

// ParseAction разбирает имя инструмента из API-запроса
func ParseAction(name string) (EditAction, error) {
	switch name {
	case "OPEN_CONFIG_DIALOG":
		return OpenConfigDialog, nil
	case "OPEN_EDITOR":
		return OpenEditor, nil
	case "MARK_BLOCK":
		return MarkBlock, nil
	case "PASTE_BLOCK":
		return PasteBlock, nil
	case "DELETE_BLOCK":
		return DeleteBlock, nil
	case "CLONE_BLOCK":
		return CloneBlock, nil
	case "SMOOTH_BLOCKS":
		return SmoothBlocks, nil
	case "ROUGH_BLOCKS":
		return RoughBlocks, nil
	default:
		return OpenConfigDialog, fmt.Errorf("неизвестный инструмент: %s", name)
	}
}

// EditState — состояние инструментов одной сессии редактора.
// Хранится в общем store, чтобы любой экземпляр сервиса
// обслуживал любую сессию без привязки.
type EditState struct {
	WorldID         string     `json:"world_id"`
	SessionID       string     `json:"session_id"`
	EditMode        bool       `json:"edit_mode"`
	Action          EditAction `json:"action"`
	SelectedLayer   string     `json:"selected_layer"`
	SelectedModelID string     `json:"selected_model_id"`
	SelectedGroup   int        `json:"selected_group"`

	// Производные поля: пересчитываются при каждой смене SelectedLayer
	LayerDataID string `json:"layer_data_id"`
	ModelName   string `json:"model_name"`

	// Последняя выбранная координата (ставится OPEN_* инструментами)
	SelectedPos *vec.Vec3 `json:"selected_pos,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// HasLayerSelected возвращает true, если у сессии выбран слой
func (s *EditState) HasLayerSelected() bool {
	return s.SelectedLayer != ""
}

// BlockRegister — буфер обмена сессии: снимок, сделанный инструментом MARK.
type BlockRegister struct {
	Block     block.Block `json:"block"`
	Layer     string      `json:"layer"`
	Group     int         `json:"group"`
	GroupName string      `json:"group_name"`
	ReadOnly  bool        `json:"read_only"`
}

// SessionRepo определяет интерфейс хранилища состояний сессий.
// Записи истекают по TTL (24 часа неактивности) как защита от утечек.
type SessionRepo interface {
	// Get возвращает состояние сессии, лениво создавая его с дефолтами.
	Get(ctx context.Context, worldID, sessionID string) (*EditState, error)

	// Put сохраняет состояние сессии и обновляет TTL.
	Put(ctx context.Context, state *EditState) error

	// Delete удаляет состояние сессии (при закрытии сессии).
	Delete(ctx context.Context, worldID, sessionID string) error

	// GetRegister возвращает буфер обмена сессии или nil, если он пуст.
	GetRegister(ctx context.Context, worldID, sessionID string) (*BlockRegister, error)

	// SetRegister сохраняет буфер обмена (перезаписывая предыдущий MARK).
	SetRegister(ctx context.Context, worldID, sessionID string, reg *BlockRegister) error

	// ClearRegister очищает буфер обмена.
	ClearRegister(ctx context.Context, worldID, sessionID string) error
}

// NewDefaultState создаёт состояние сессии с дефолтами:
// режим редактирования выключен, инструмент — открытие диалога настроек.
func NewDefaultState(worldID, sessionID string) *EditState {
	return &EditState{
		WorldID:     worldID,
		SessionID:   sessionID,
		EditMode:    false,
		Action:      OpenConfigDialog,
		LastUpdated: time.Now().UTC(),
	}
}

// SessionManager — единая точка изменения состояния сессии.
// Пересчитывает производные поля при смене слоя и просит клиента
// обновить отображение.
type SessionManager struct {
	repo     SessionRepo
	layers   layer.Repo
	notifier transport.ClientNotifier
	log      *logging.Logger
}

// NewSessionManager создаёт менеджер сессий.
func NewSessionManager(repo SessionRepo, layers layer.Repo, notifier transport.ClientNotifier) *SessionManager {
	return &SessionManager{
		repo:     repo,
		layers:   layers,
		notifier: notifier,
		log:      logging.GetEditorLogger(),
	}
}

// Get возвращает состояние сессии (лениво создавая его).
func (sm *SessionManager) Get(ctx context.Context, worldID, sessionID string) (*EditState, error) {
	return sm.repo.Get(ctx, worldID, sessionID)
}

// Update применяет mutate к состоянию сессии в один приём read-modify-write.
// При смене выбранного слоя пересчитывает layerDataID/modelName
// и инициирует обновление отображения у клиента.
func (sm *SessionManager) Update(ctx context.Context, worldID, sessionID string, mutate func(*EditState)) (*EditState, error) {
	state, err := sm.repo.Get(ctx, worldID, sessionID)
	if err != nil {
		return nil, err
	}

	prevLayer := state.SelectedLayer
	mutate(state)
	state.LastUpdated = time.Now().UTC()

	if state.SelectedLayer != prevLayer {
		sm.deriveLayerMeta(ctx, state)
	}

	if err := sm.repo.Put(ctx, state); err != nil {
		return nil, err
	}

	if state.SelectedLayer != prevLayer {
		sm.refreshClientDisplay(ctx, state)
	}

	return state, nil
}

// Close удаляет состояние и буфер обмена сессии.
func (sm *SessionManager) Close(ctx context.Context, worldID, sessionID string) error {
	if err := sm.repo.ClearRegister(ctx, worldID, sessionID); err != nil {
		sm.log.Warn("Не удалось очистить буфер обмена сессии %s: %v", sessionID, err)
	}
	return sm.repo.Delete(ctx, worldID, sessionID)
}

// deriveLayerMeta пересчитывает производные поля состояния из выбранного слоя
func (sm *SessionManager) deriveLayerMeta(ctx context.Context, state *EditState) {
	state.LayerDataID = ""
	state.ModelName = ""

	if state.SelectedLayer == "" {
		return
	}

	l, err := sm.layers.FindLayer(ctx, state.WorldID, state.SelectedLayer)
	if err != nil {
		sm.log.Warn("Слой %s/%s не найден при обновлении сессии: %v",
			state.WorldID, state.SelectedLayer, err)
		return
	}

	state.LayerDataID = l.LayerDataID

	if l.Type == layer.Model {
		// Имя модели нужно только для отображения; отсутствие — не ошибка
		if model, err := sm.layers.FindModel(ctx, l.LayerDataID); err == nil {
			state.ModelName = model.Name
		}
	}
}

// refreshClientDisplay просит клиента перерисовать выбранный слой (best-effort)
func (sm *SessionManager) refreshClientDisplay(ctx context.Context, state *EditState) {
	if sm.notifier == nil {
		return
	}
	err := sm.notifier.SendToClient(ctx, state.WorldID, state.SessionID, "refresh_display", map[string]interface{}{
		"layer":      state.SelectedLayer,
		"model_name": state.ModelName,
	})
	if err != nil {
		sm.log.Debug("Не удалось отправить refresh_display сессии %s: %v", state.SessionID, err)
	}
}
