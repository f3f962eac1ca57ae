package transport

import (
	"context"
	"sync"
)

// SentCommand — записанная команда для проверок в тестах.
type SentCommand struct {
	WorldID   string
	SessionID string
	Command   string
	Args      map[string]interface{}
}

// MemoryNotifier реализует ClientNotifier в памяти.
// Используется в тестах и при работе без брокера сообщений.
type MemoryNotifier struct {
	mu       sync.RWMutex
	channels map[string]struct{} // worldID/sessionID
	sent     []SentCommand
}

// NewMemoryNotifier создаёт notifier без зарегистрированных каналов.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		channels: make(map[string]struct{}),
	}
}

func key(worldID, sessionID string) string {
	return worldID + "/" + sessionID
}

// OpenChannel регистрирует живой канал сессии.
func (mn *MemoryNotifier) OpenChannel(worldID, sessionID string) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels[key(worldID, sessionID)] = struct{}{}
}

// CloseChannel удаляет канал сессии.
func (mn *MemoryNotifier) CloseChannel(worldID, sessionID string) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	delete(mn.channels, key(worldID, sessionID))
}

// HasChannel возвращает true, если канал сессии зарегистрирован.
func (mn *MemoryNotifier) HasChannel(worldID, sessionID string) bool {
	mn.mu.RLock()
	defer mn.mu.RUnlock()
	_, exists := mn.channels[key(worldID, sessionID)]
	return exists
}

// SendToClient записывает команду в журнал отправленных.
func (mn *MemoryNotifier) SendToClient(ctx context.Context, worldID, sessionID, command string, args map[string]interface{}) error {
	mn.mu.Lock()
	defer mn.mu.Unlock()

	mn.sent = append(mn.sent, SentCommand{
		WorldID:   worldID,
		SessionID: sessionID,
		Command:   command,
		Args:      args,
	})
	return nil
}

// Sent возвращает копию журнала отправленных команд.
func (mn *MemoryNotifier) Sent() []SentCommand {
	mn.mu.RLock()
	defer mn.mu.RUnlock()

	result := make([]SentCommand, len(mn.sent))
	copy(result, mn.sent)
	return result
}

// SentCommands возвращает имена команд в порядке отправки.
func (mn *MemoryNotifier) SentCommands() []string {
	mn.mu.RLock()
	defer mn.mu.RUnlock()

	names := make([]string, 0, len(mn.sent))
	for _, c := range mn.sent {
		names = append(names, c.Command)
	}
	return names
}
