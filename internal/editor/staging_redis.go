package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/vec"
)

// RedisStagingRepo хранит staged-правки в Redis: значение — JSON снимка,
// плюс SET-индекс координат на слой для перечисления и массового удаления.
// TTL (по умолчанию 24 часа) — единственный механизм истечения.
type RedisStagingRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       *logging.Logger
}

// RedisStagingConfig содержит настройки staged-хранилища.
type RedisStagingConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultRedisStagingConfig возвращает конфигурацию по умолчанию.
func DefaultRedisStagingConfig() *RedisStagingConfig {
	return &RedisStagingConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "edit:stage:",
		TTL:       24 * time.Hour,
	}
}

// NewRedisStagingRepo создаёт репозиторий staged-правок на Redis.
func NewRedisStagingRepo(cfg *RedisStagingConfig) (*RedisStagingRepo, error) {
	if cfg == nil {
		cfg = DefaultRedisStagingConfig()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "edit:stage:"
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

	return &RedisStagingRepo{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		log:       logging.GetStorageLogger(),
	}, nil
}

// entryKey — ключ одной правки: edit:stage:<world>:<layerData>:<x>:<y>:<z>
func (r *RedisStagingRepo) entryKey(worldID, layerDataID string, pos vec.Vec3) string {
	return fmt.Sprintf("%s%s:%s:%d:%d:%d", r.keyPrefix, worldID, layerDataID, pos.X, pos.Y, pos.Z)
}

// indexKey — SET координат слоя: edit:stage:idx:<world>:<layerData>
func (r *RedisStagingRepo) indexKey(worldID, layerDataID string) string {
	return fmt.Sprintf("%sidx:%s:%s", r.keyPrefix, worldID, layerDataID)
}

// worldIndexKey — SET слоёв мира, имеющих правки: edit:stage:layers:<world>
func (r *RedisStagingRepo) worldIndexKey(worldID string) string {
	return fmt.Sprintf("%slayers:%s", r.keyPrefix, worldID)
}

func memberOf(pos vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", pos.X, pos.Y, pos.Z)
}

// Put ставит или перезаписывает правку, сохраняя CreatedAt существующей.
func (r *RedisStagingRepo) Put(ctx context.Context, entry *StagedBlock) error {
	now := time.Now().UTC()
	entry.ModifiedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	// Сохраняем CreatedAt существующей записи: перезапись не «омолаживает» правку
	if existing, err := r.Get(ctx, entry.WorldID, entry.LayerDataID, entry.Pos); err == nil && existing != nil {
		entry.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal staged block: %w", err)
	}

	key := r.entryKey(entry.WorldID, entry.LayerDataID, entry.Pos)
	idx := r.indexKey(entry.WorldID, entry.LayerDataID)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, r.ttl)
	pipe.SAdd(ctx, idx, memberOf(entry.Pos))
	pipe.Expire(ctx, idx, r.ttl)
	pipe.SAdd(ctx, r.worldIndexKey(entry.WorldID), entry.LayerDataID)
	pipe.Expire(ctx, r.worldIndexKey(entry.WorldID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis staging put error: %w", err)
	}
	return nil
}

// Get возвращает правку или nil, если её нет.
func (r *RedisStagingRepo) Get(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) (*StagedBlock, error) {
	data, err := r.client.Get(ctx, r.entryKey(worldID, layerDataID, pos)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis staging get error: %w", err)
	}

	var entry StagedBlock
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal staged block: %w", err)
	}
	return &entry, nil
}

// ListByLayer возвращает снимок всех правок слоя.
// Истёкшие по TTL записи вычищаются из индекса по пути.
func (r *RedisStagingRepo) ListByLayer(ctx context.Context, worldID, layerDataID string) ([]*StagedBlock, error) {
	members, err := r.client.SMembers(ctx, r.indexKey(worldID, layerDataID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis staging index error: %w", err)
	}
	if len(members) == 0 {
		return []*StagedBlock{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, member := range members {
		var pos vec.Vec3
		if _, err := fmt.Sscanf(member, "%d:%d:%d", &pos.X, &pos.Y, &pos.Z); err != nil {
			continue
		}
		cmds[i] = pipe.Get(ctx, r.entryKey(worldID, layerDataID, pos))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis staging list error: %w", err)
	}

	result := make([]*StagedBlock, 0, len(members))
	var stale []interface{}
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		data, err := cmd.Bytes()
		if err == redis.Nil {
			// Запись истекла, индекс отстал
			stale = append(stale, members[i])
			continue
		}
		if err != nil {
			r.log.Warn("Ошибка чтения staged-правки %s: %v", members[i], err)
			continue
		}
		var entry StagedBlock
		if err := json.Unmarshal(data, &entry); err != nil {
			r.log.Warn("Ошибка разбора staged-правки %s: %v", members[i], err)
			continue
		}
		result = append(result, &entry)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, r.indexKey(worldID, layerDataID), stale...).Err(); err != nil {
			r.log.Warn("Не удалось вычистить индекс слоя %s: %v", layerDataID, err)
		}
	}

	return result, nil
}

// DeleteByLayer удаляет все правки слоя и возвращает число удалённых.
func (r *RedisStagingRepo) DeleteByLayer(ctx context.Context, worldID, layerDataID string) (int, error) {
	entries, err := r.ListByLayer(ctx, worldID, layerDataID)
	if err != nil {
		return 0, err
	}

	if len(entries) == 0 {
		return 0, nil
	}

	pipe := r.client.Pipeline()
	for _, entry := range entries {
		pipe.Del(ctx, r.entryKey(worldID, layerDataID, entry.Pos))
	}
	pipe.Del(ctx, r.indexKey(worldID, layerDataID))
	pipe.SRem(ctx, r.worldIndexKey(worldID), layerDataID)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis staging delete error: %w", err)
	}

	return len(entries), nil
}

// Delete удаляет одну правку.
func (r *RedisStagingRepo) Delete(ctx context.Context, worldID, layerDataID string, pos vec.Vec3) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.entryKey(worldID, layerDataID, pos))
	pipe.SRem(ctx, r.indexKey(worldID, layerDataID), memberOf(pos))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis staging delete error: %w", err)
	}
	return nil
}

// StatsByWorld возвращает статистику staged-правок по слоям мира.
func (r *RedisStagingRepo) StatsByWorld(ctx context.Context, worldID string) ([]*LayerStats, error) {
	layerIDs, err := r.client.SMembers(ctx, r.worldIndexKey(worldID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis staging world index error: %w", err)
	}

	result := make([]*LayerStats, 0, len(layerIDs))
	for _, layerDataID := range layerIDs {
		entries, err := r.ListByLayer(ctx, worldID, layerDataID)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}
		result = append(result, statsFromEntries(layerDataID, entries))
	}
	return result, nil
}

// Close закрывает соединение с Redis.
func (r *RedisStagingRepo) Close() error {
	return r.client.Close()
}

// statsFromEntries агрегирует статистику слоя из снимка правок
func statsFromEntries(layerDataID string, entries []*StagedBlock) *LayerStats {
	stats := &LayerStats{
		LayerDataID: layerDataID,
		Count:       len(entries),
	}
	for _, e := range entries {
		if stats.Earliest.IsZero() || e.CreatedAt.Before(stats.Earliest) {
			stats.Earliest = e.CreatedAt
		}
		if e.ModifiedAt.After(stats.Latest) {
			stats.Latest = e.ModifiedAt
		}
	}
	return stats
}
