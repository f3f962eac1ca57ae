package editor

import (
	"context"

	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/vec"
)

// actionRequest — данные одного клика редактора, передаваемые обработчику.
type actionRequest struct {
	worldID   string
	sessionID string
	pos       vec.Vec3
	state     *EditState
}

// actionHandler исполняет один инструмент редактора.
// Каждый инструмент — отдельная реализация; диспетчер не знает их семантики.
type actionHandler interface {
	Execute(ctx context.Context, req *actionRequest) Outcome
}

// Dispatcher выполняет активный инструмент сессии по клику на координату.
type Dispatcher struct {
	sessions *SessionManager
	resolver *Resolver
	notifier transport.ClientNotifier
	handlers map[EditAction]actionHandler
	log      *logging.Logger
}

// NewDispatcher создаёт диспетчер инструментов.
func NewDispatcher(sessions *SessionManager, resolver *Resolver, smoother *Smoother, layers layer.Repo, notifier transport.ClientNotifier) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		resolver: resolver,
		notifier: notifier,
		log:      logging.GetEditorLogger(),
	}

	d.handlers = map[EditAction]actionHandler{
		OpenConfigDialog: &openHandler{notifier: notifier, sessions: sessions, command: "open_config_dialog"},
		OpenEditor:       &openHandler{notifier: notifier, sessions: sessions, command: "open_editor"},
		MarkBlock:        &markHandler{resolver: resolver, sessions: sessions, layers: layers, notifier: notifier},
		PasteBlock:       &pasteHandler{resolver: resolver, sessions: sessions},
		DeleteBlock:      &deleteHandler{resolver: resolver},
		CloneBlock:       &cloneHandler{resolver: resolver},
		SmoothBlocks:     &smoothHandler{smoother: smoother, rough: false},
		RoughBlocks:      &smoothHandler{smoother: smoother, rough: true},
	}

	return d
}

// Dispatch выполняет инструмент на координате.
// Инструмент берётся из override, иначе из состояния сессии;
// по умолчанию — открытие диалога настроек.
func (d *Dispatcher) Dispatch(ctx context.Context, worldID, sessionID string, pos vec.Vec3, override *EditAction) Outcome {
	state, err := d.sessions.Get(ctx, worldID, sessionID)
	if err != nil {
		return Failed(err)
	}

	action := state.Action
	if override != nil {
		action = *override
	}

	// Без живого канала UI-обратная связь невозможна; мягкий no-op
	if d.notifier == nil || !d.notifier.HasChannel(worldID, sessionID) {
		d.log.Info("Нет живого канала для сессии %s/%s, инструмент %s пропущен",
			worldID, sessionID, action)
		actionsTotal.WithLabelValues(action.String(), OutcomeSkipped.String()).Inc()
		return Skipped(SkipNoChannel)
	}

	handler, exists := d.handlers[action]
	if !exists {
		handler = d.handlers[OpenConfigDialog]
		action = OpenConfigDialog
	}

	outcome := handler.Execute(ctx, &actionRequest{
		worldID:   worldID,
		sessionID: sessionID,
		pos:       pos,
		state:     state,
	})

	actionsTotal.WithLabelValues(action.String(), outcome.Kind.String()).Inc()

	switch outcome.Kind {
	case OutcomeSkipped:
		d.log.Debug("Инструмент %s пропущен (%s): мир=%s сессия=%s поз=%v",
			action, outcome.Reason, worldID, sessionID, pos)
	case OutcomeFailed:
		d.log.Error("Инструмент %s завершился ошибкой: %v", action, outcome.Err)
	}

	return outcome
}
