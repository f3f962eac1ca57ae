package layer

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда слой или модель отсутствуют в хранилище.
var ErrNotFound = errors.New("layer not found")

// Repo определяет интерфейс хранилища метаданных слоёв и содержимого моделей.
// Реализации: MongoDB для продакшена, память для тестов и локальной разработки.
type Repo interface {
	// FindLayer ищет слой по миру и имени.
	// Возвращает ErrNotFound, если слой не существует.
	FindLayer(ctx context.Context, worldID, name string) (*Layer, error)

	// FindLayersByWorld возвращает все слои мира.
	FindLayersByWorld(ctx context.Context, worldID string) ([]*Layer, error)

	// FindLayerByDataID ищет слой по его layerDataID.
	// Возвращает ErrNotFound, если слой не существует.
	FindLayerByDataID(ctx context.Context, worldID, layerDataID string) (*Layer, error)

	// FindModel загружает содержимое MODEL-слоя по layerDataID.
	// Возвращает ErrNotFound, если модель не существует.
	FindModel(ctx context.Context, layerDataID string) (*LayerModel, error)

	// SaveModel сохраняет содержимое MODEL-слоя (используется commit-пайплайном).
	SaveModel(ctx context.Context, model *LayerModel) error

	// Close закрывает соединение с хранилищем.
	Close(ctx context.Context) error
}
