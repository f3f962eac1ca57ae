package transport

import "context"

// ClientNotifier доставляет команды UI клиенту сессии.
// Доставка best-effort: отсутствие живого канала — не ошибка редактора,
// мутация данных при этом всё равно применяется.
type ClientNotifier interface {
	// HasChannel возвращает true, если у сессии есть живой исходящий канал.
	HasChannel(worldID, sessionID string) bool

	// SendToClient отправляет команду клиенту сессии (fire-and-forget).
	SendToClient(ctx context.Context, worldID, sessionID, command string, args map[string]interface{}) error
}
