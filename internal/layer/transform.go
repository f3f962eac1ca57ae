package layer

import (
	"github.com/annel0/voxel-editor/internal/vec"
)

// Преобразование координат между мировой и локальной системами MODEL-слоя:
// мировая = поворот(локальная) + точка монтажа.
// Поворот выполняется вокруг вертикальной оси Y шагами по 90°.

// rotateY поворачивает точку вокруг оси Y на steps*90° против часовой стрелки
func rotateY(p vec.Vec3, steps int) vec.Vec3 {
	steps = ((steps % 4) + 4) % 4
	for i := 0; i < steps; i++ {
		p = vec.Vec3{X: -p.Z, Y: p.Y, Z: p.X}
	}
	return p
}

// ToLayerLocal преобразует мировую координату в локальную систему модели
func ToLayerLocal(m *LayerModel, worldPos vec.Vec3) vec.Vec3 {
	mount := vec.Vec3{X: m.MountX, Y: m.MountY, Z: m.MountZ}
	// Обратный поворот: 4-rotation шагов в ту же сторону
	return rotateY(worldPos.Sub(mount), 4-m.Rotation)
}

// ToWorld преобразует локальную координату модели в мировую
func ToWorld(m *LayerModel, localPos vec.Vec3) vec.Vec3 {
	mount := vec.Vec3{X: m.MountX, Y: m.MountY, Z: m.MountZ}
	return rotateY(localPos, m.Rotation).Add(mount)
}
