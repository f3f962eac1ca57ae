package layer

import (
	"github.com/annel0/voxel-editor/internal/block"
)

// LayerType определяет вид редактируемого слоя
type LayerType int

const (
	Ground LayerType = iota // Террейн, блоки в мировых координатах
	Model                   // Модель с точкой монтажа и поворотом
)

// String возвращает строковое представление типа слоя
func (t LayerType) String() string {
	switch t {
	case Ground:
		return "GROUND"
	case Model:
		return "MODEL"
	default:
		return "UNKNOWN"
	}
}

// Layer описывает именованную редактируемую поверхность мира
type Layer struct {
	WorldID     string    `bson:"world_id" json:"world_id"`
	Name        string    `bson:"name" json:"name"`
	LayerDataID string    `bson:"layer_data_id" json:"layer_data_id"` // Ссылка на содержимое слоя
	Type        LayerType `bson:"type" json:"type"`
	Enabled     bool      `bson:"enabled" json:"enabled"`
}

// LayerModel содержит содержимое MODEL-слоя: блоки в локальных координатах,
// точку монтажа и поворот вокруг вертикальной оси (шаги по 90°).
type LayerModel struct {
	LayerDataID string         `bson:"layer_data_id" json:"layer_data_id"`
	Name        string         `bson:"name" json:"name"`
	MountX      int            `bson:"mount_x" json:"mount_x"`
	MountY      int            `bson:"mount_y" json:"mount_y"`
	MountZ      int            `bson:"mount_z" json:"mount_z"`
	Rotation    int            `bson:"rotation" json:"rotation"` // 0..3
	Content     []block.Block  `bson:"content" json:"content"`   // Блоки в локальной системе
	Groups      map[string]int `bson:"groups" json:"groups"`     // Имя группы -> ID
}
