package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSessionRepo хранит состояния сессий и буферы обмена в Redis.
// Записи истекают через TTL (по умолчанию 24 часа неактивности);
// каждая запись продлевает TTL.
type RedisSessionRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisSessionConfig содержит настройки хранилища сессий.
type RedisSessionConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultRedisSessionConfig возвращает конфигурацию по умолчанию.
func DefaultRedisSessionConfig() *RedisSessionConfig {
	return &RedisSessionConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "edit:sess:",
		TTL:       24 * time.Hour,
	}
}

// NewRedisSessionRepo создаёт репозиторий сессий на Redis.
func NewRedisSessionRepo(cfg *RedisSessionConfig) (*RedisSessionRepo, error) {
	if cfg == nil {
		cfg = DefaultRedisSessionConfig()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "edit:sess:"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionRepo{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

func (r *RedisSessionRepo) stateKey(worldID, sessionID string) string {
	return r.keyPrefix + worldID + ":" + sessionID
}

func (r *RedisSessionRepo) registerKey(worldID, sessionID string) string {
	return r.keyPrefix + "reg:" + worldID + ":" + sessionID
}

// Get возвращает состояние сессии, лениво создавая его с дефолтами.
func (r *RedisSessionRepo) Get(ctx context.Context, worldID, sessionID string) (*EditState, error) {
	key := r.stateKey(worldID, sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// Первое обращение: создаём состояние с дефолтами
		state := NewDefaultState(worldID, sessionID)
		if err := r.Put(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis session get error: %w", err)
	}

	var state EditState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Put сохраняет состояние сессии и продлевает TTL.
func (r *RedisSessionRepo) Put(ctx context.Context, state *EditState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	key := r.stateKey(state.WorldID, state.SessionID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis session put error: %w", err)
	}
	return nil
}

// Delete удаляет состояние сессии.
func (r *RedisSessionRepo) Delete(ctx context.Context, worldID, sessionID string) error {
	if err := r.client.Del(ctx, r.stateKey(worldID, sessionID)).Err(); err != nil {
		return fmt.Errorf("redis session delete error: %w", err)
	}
	return nil
}

// GetRegister возвращает буфер обмена сессии или nil.
func (r *RedisSessionRepo) GetRegister(ctx context.Context, worldID, sessionID string) (*BlockRegister, error) {
	data, err := r.client.Get(ctx, r.registerKey(worldID, sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis register get error: %w", err)
	}

	var reg BlockRegister
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block register: %w", err)
	}
	return &reg, nil
}

// SetRegister сохраняет буфер обмена, перезаписывая предыдущий MARK.
func (r *RedisSessionRepo) SetRegister(ctx context.Context, worldID, sessionID string, reg *BlockRegister) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal block register: %w", err)
	}

	if err := r.client.Set(ctx, r.registerKey(worldID, sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis register set error: %w", err)
	}
	return nil
}

// ClearRegister очищает буфер обмена.
func (r *RedisSessionRepo) ClearRegister(ctx context.Context, worldID, sessionID string) error {
	if err := r.client.Del(ctx, r.registerKey(worldID, sessionID)).Err(); err != nil {
		return fmt.Errorf("redis register clear error: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisSessionRepo) Close() error {
	return r.client.Close()
}
