package layer

import (
	"context"
	"sync"
)

// MemoryRepo реализует Repo в памяти.
// Используется как fallback, когда MongoDB недоступна,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryRepo struct {
	mu     sync.RWMutex
	layers map[string]*Layer      // worldID+"/"+name -> слой
	models map[string]*LayerModel // layerDataID -> модель
}

// NewMemoryRepo создает новый репозиторий слоёв в памяти.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		layers: make(map[string]*Layer),
		models: make(map[string]*LayerModel),
	}
}

// PutLayer добавляет слой (для тестов и dev-наполнения).
func (r *MemoryRepo) PutLayer(l *Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers[l.WorldID+"/"+l.Name] = l
}

// PutModel добавляет содержимое модели (для тестов и dev-наполнения).
func (r *MemoryRepo) PutModel(m *LayerModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.LayerDataID] = m
}

// FindLayer ищет слой по миру и имени.
func (r *MemoryRepo) FindLayer(ctx context.Context, worldID, name string) (*Layer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	l, exists := r.layers[worldID+"/"+name]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *l
	return &copied, nil
}

// FindLayersByWorld возвращает все слои мира.
func (r *MemoryRepo) FindLayersByWorld(ctx context.Context, worldID string) ([]*Layer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Layer
	for _, l := range r.layers {
		if l.WorldID == worldID {
			copied := *l
			result = append(result, &copied)
		}
	}
	return result, nil
}

// FindLayerByDataID ищет слой по его layerDataID.
func (r *MemoryRepo) FindLayerByDataID(ctx context.Context, worldID, layerDataID string) (*Layer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.layers {
		if l.WorldID == worldID && l.LayerDataID == layerDataID {
			copied := *l
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// FindModel загружает содержимое MODEL-слоя.
func (r *MemoryRepo) FindModel(ctx context.Context, layerDataID string) (*LayerModel, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.models[layerDataID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *m
	copied.Content = append(copied.Content[:0:0], m.Content...)
	return &copied, nil
}

// SaveModel сохраняет содержимое MODEL-слоя.
func (r *MemoryRepo) SaveModel(ctx context.Context, model *LayerModel) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *model
	copied.Content = append(copied.Content[:0:0], model.Content...)
	r.models[model.LayerDataID] = &copied
	return nil
}

// Close ничего не делает для памяти.
func (r *MemoryRepo) Close(ctx context.Context) error {
	return nil
}
