package editor

import (
	"context"
	"sync"
	"time"
)

// MemorySessionRepo реализует SessionRepo в памяти.
// Используется в тестах и при локальной разработке без Redis.
type MemorySessionRepo struct {
	mu        sync.RWMutex
	states    map[string]*EditState
	registers map[string]*BlockRegister
	touched   map[string]time.Time
	ttl       time.Duration
}

// NewMemorySessionRepo создает репозиторий сессий в памяти.
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		states:    make(map[string]*EditState),
		registers: make(map[string]*BlockRegister),
		touched:   make(map[string]time.Time),
		ttl:       24 * time.Hour,
	}
}

func sessionKey(worldID, sessionID string) string {
	return worldID + "/" + sessionID
}

// alive возвращает true, если запись сессии ещё не истекла
func (r *MemorySessionRepo) alive(key string) bool {
	touched, exists := r.touched[key]
	return exists && time.Since(touched) <= r.ttl
}

// Get возвращает состояние сессии, лениво создавая его с дефолтами.
func (r *MemorySessionRepo) Get(ctx context.Context, worldID, sessionID string) (*EditState, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(worldID, sessionID)
	if state, exists := r.states[key]; exists && r.alive(key) {
		copied := *state
		return &copied, nil
	}

	state := NewDefaultState(worldID, sessionID)
	r.states[key] = state
	r.touched[key] = time.Now()

	copied := *state
	return &copied, nil
}

// Put сохраняет состояние сессии и продлевает TTL.
func (r *MemorySessionRepo) Put(ctx context.Context, state *EditState) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(state.WorldID, state.SessionID)
	copied := *state
	r.states[key] = &copied
	r.touched[key] = time.Now()
	return nil
}

// Delete удаляет состояние сессии.
func (r *MemorySessionRepo) Delete(ctx context.Context, worldID, sessionID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(worldID, sessionID)
	delete(r.states, key)
	delete(r.registers, key)
	delete(r.touched, key)
	return nil
}

// GetRegister возвращает буфер обмена сессии или nil.
func (r *MemorySessionRepo) GetRegister(ctx context.Context, worldID, sessionID string) (*BlockRegister, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key := sessionKey(worldID, sessionID)
	reg, exists := r.registers[key]
	if !exists || !r.alive(key) {
		return nil, nil
	}

	copied := *reg
	copied.Block = reg.Block.Clone()
	return &copied, nil
}

// SetRegister сохраняет буфер обмена, перезаписывая предыдущий MARK.
func (r *MemorySessionRepo) SetRegister(ctx context.Context, worldID, sessionID string, reg *BlockRegister) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(worldID, sessionID)
	copied := *reg
	copied.Block = reg.Block.Clone()
	r.registers[key] = &copied
	r.touched[key] = time.Now()
	return nil
}

// ClearRegister очищает буфер обмена.
func (r *MemorySessionRepo) ClearRegister(ctx context.Context, worldID, sessionID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.registers, sessionKey(worldID, sessionID))
	return nil
}
