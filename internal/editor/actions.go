package editor

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/transport"
)

// openHandler — инструменты OPEN_CONFIG_DIALOG / OPEN_EDITOR.
// Данные не меняет: запоминает выбранную координату и просит клиента открыть UI.
type openHandler struct {
	notifier transport.ClientNotifier
	sessions *SessionManager
	command  string
}

func (h *openHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	pos := req.pos
	_, err := h.sessions.Update(ctx, req.worldID, req.sessionID, func(s *EditState) {
		s.SelectedPos = &pos
	})
	if err != nil {
		return Failed(fmt.Errorf("failed to record selected position: %w", err))
	}

	// Доставка команды best-effort: канал уже проверен диспетчером
	_ = h.notifier.SendToClient(ctx, req.worldID, req.sessionID, h.command, map[string]interface{}{
		"pos": pos,
	})
	return Applied()
}

// markHandler — инструмент MARK_BLOCK: снимок блока в буфер обмена сессии.
type markHandler struct {
	resolver *Resolver
	sessions *SessionManager
	layers   layer.Repo
	notifier transport.ClientNotifier
}

func (h *markHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	b, prov, err := h.resolver.Resolve(ctx, req.worldID, req.sessionID, req.pos)
	if err != nil {
		return Failed(fmt.Errorf("mark resolve failed: %w", err))
	}

	reg := &BlockRegister{
		Block:     b,
		Layer:     req.state.SelectedLayer,
		Group:     req.state.SelectedGroup,
		GroupName: h.groupName(ctx, req.state),
		ReadOnly:  prov.ReadOnly,
	}

	if err := h.sessions.repo.SetRegister(ctx, req.worldID, req.sessionID, reg); err != nil {
		return Failed(fmt.Errorf("failed to store block register: %w", err))
	}

	_ = h.notifier.SendToClient(ctx, req.worldID, req.sessionID, "highlight_block", map[string]interface{}{
		"pos":     req.pos,
		"type_id": b.TypeID,
		"source":  prov.Source.String(),
	})
	return Applied()
}

// groupName разворачивает ID выбранной группы в имя по таблице групп модели.
// Best-effort: отсутствие модели или группы — пустое имя, не ошибка.
func (h *markHandler) groupName(ctx context.Context, state *EditState) string {
	if state.LayerDataID == "" {
		return ""
	}
	model, err := h.layers.FindModel(ctx, state.LayerDataID)
	if err != nil {
		return ""
	}
	for name, id := range model.Groups {
		if id == state.SelectedGroup {
			return name
		}
	}
	return ""
}

// pasteHandler — инструмент PASTE_BLOCK: вставка блока из буфера обмена.
type pasteHandler struct {
	resolver *Resolver
	sessions *SessionManager
}

func (h *pasteHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	reg, err := h.sessions.repo.GetRegister(ctx, req.worldID, req.sessionID)
	if err != nil {
		return Failed(fmt.Errorf("failed to load block register: %w", err))
	}
	if reg == nil {
		return Skipped(SkipNoRegister)
	}

	// Клонируем снимок; позицию проставит write-путь
	return h.resolver.Write(ctx, req.worldID, req.sessionID, reg.Block.Clone(), req.pos)
}

// deleteHandler — инструмент DELETE_BLOCK.
// Реализован как вставка константного воздуха, отдельного delete-примитива нет.
type deleteHandler struct {
	resolver *Resolver
}

func (h *deleteHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	return h.resolver.Write(ctx, req.worldID, req.sessionID, block.Air(req.pos), req.pos)
}

// cloneHandler — инструмент CLONE_BLOCK: copy-on-write повышение.
// Видимый блок (возможно из read-only baked-тира) записывается обратно
// в ту же координату и становится редактируемой staged-правкой.
type cloneHandler struct {
	resolver *Resolver
}

func (h *cloneHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	b, _, err := h.resolver.Resolve(ctx, req.worldID, req.sessionID, req.pos)
	if err != nil {
		return Failed(fmt.Errorf("clone resolve failed: %w", err))
	}

	return h.resolver.Write(ctx, req.worldID, req.sessionID, b, req.pos)
}

// smoothHandler — инструменты SMOOTH_BLOCKS / ROUGH_BLOCKS.
type smoothHandler struct {
	smoother *Smoother
	rough    bool
}

func (h *smoothHandler) Execute(ctx context.Context, req *actionRequest) Outcome {
	if h.rough {
		return h.smoother.Rough(ctx, req.worldID, req.sessionID, req.pos)
	}
	return h.smoother.Smooth(ctx, req.worldID, req.sessionID, req.pos)
}

// Компиляционная проверка соответствия обработчиков интерфейсу
var (
	_ actionHandler = (*openHandler)(nil)
	_ actionHandler = (*markHandler)(nil)
	_ actionHandler = (*pasteHandler)(nil)
	_ actionHandler = (*deleteHandler)(nil)
	_ actionHandler = (*cloneHandler)(nil)
	_ actionHandler = (*smoothHandler)(nil)
)
