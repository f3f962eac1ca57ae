package worldstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/gzip"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// BadgerStore реализует TerrainStore, BakedStore и DirtyMarker поверх BadgerDB.
// Значения — gzip-сжатый JSON списка блоков; чанки небольшие, но офсеты
// и метаданные в JSON жмутся в разы.
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore создает хранилище чанков в указанном каталоге.
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	dbPath := filepath.Join(dataPath, "chunks")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных.
func (bs *BadgerStore) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	return bs.db.Close()
}

func terrainKey(worldID, layerDataID string, chunk vec.Vec2) []byte {
	return []byte(fmt.Sprintf("terrain:%s:%s:%s", worldID, layerDataID, chunk.Key()))
}

func bakedKey(worldID string, chunk vec.Vec2) []byte {
	return []byte(fmt.Sprintf("baked:%s:%s", worldID, chunk.Key()))
}

func dirtyKey(worldID string, chunk vec.Vec2) []byte {
	return []byte(fmt.Sprintf("dirty:%s:%s", worldID, chunk.Key()))
}

// LoadTerrainSegment загружает блоки сегмента GROUND-слоя.
func (bs *BadgerStore) LoadTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2) ([]block.Block, error) {
	return bs.loadBlocks(ctx, terrainKey(worldID, layerDataID, chunk))
}

// SaveTerrainSegment перезаписывает блоки сегмента GROUND-слоя.
func (bs *BadgerStore) SaveTerrainSegment(ctx context.Context, worldID, layerDataID string, chunk vec.Vec2, blocks []block.Block) error {
	return bs.saveBlocks(ctx, terrainKey(worldID, layerDataID, chunk), blocks)
}

// LoadBakedChunk загружает блоки baked-чанка.
func (bs *BadgerStore) LoadBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2) ([]block.Block, error) {
	return bs.loadBlocks(ctx, bakedKey(worldID, chunk))
}

// SaveBakedChunk перезаписывает baked-чанк (используется генератором dev-мира).
func (bs *BadgerStore) SaveBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2, blocks []block.Block) error {
	return bs.saveBlocks(ctx, bakedKey(worldID, chunk), blocks)
}

// MarkChunkDirty помечает чанк как требующий пересборки.
func (bs *BadgerStore) MarkChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	stamp := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dirtyKey(worldID, chunk), stamp)
	})
	if err != nil {
		return fmt.Errorf("ошибка пометки чанка: %w", err)
	}
	return nil
}

// IsChunkDirty возвращает true, если чанк помечен на пересборку.
func (bs *BadgerStore) IsChunkDirty(ctx context.Context, worldID string, chunk vec.Vec2) (bool, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}

	err := bs.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dirtyKey(worldID, chunk))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения отметки чанка: %w", err)
	}
	return true, nil
}

func (bs *BadgerStore) loadBlocks(ctx context.Context, key []byte) ([]block.Block, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	// Отсутствующий чанк — пустой срез, не ошибка
	if err == badger.ErrKeyNotFound {
		return []block.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки чанка: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки чанка: %w", err)
	}

	var blocks []block.Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("ошибка десериализации чанка: %w", err)
	}
	return blocks, nil
}

func (bs *BadgerStore) saveBlocks(ctx context.Context, key []byte, blocks []block.Block) error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	raw, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка: %w", err)
	}

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("ошибка сжатия чанка: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("ошибка сжатия чанка: %w", err)
	}

	err = bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}
