package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/voxel-editor/internal/vec"
)

// TestTransformRoundTrip проверяет, что ToWorld(ToLayerLocal(p)) == p
// для всех поворотов и нескольких точек монтирования
func TestTransformRoundTrip(t *testing.T) {
	mounts := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 5, Z: -3},
		{X: -100, Y: 64, Z: 100},
	}
	points := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 2, Z: 3},
		{X: -7, Y: 0, Z: 13},
		{X: 255, Y: 30, Z: -255},
	}

	for _, mount := range mounts {
		for rotation := 0; rotation < 4; rotation++ {
			model := &LayerModel{
				MountX:   mount.X,
				MountY:   mount.Y,
				MountZ:   mount.Z,
				Rotation: rotation,
			}
			for _, p := range points {
				local := ToLayerLocal(model, p)
				back := ToWorld(model, local)
				assert.Equal(t, p, back,
					"round-trip нарушен: mount=%v rotation=%d p=%v", mount, rotation, p)
			}
		}
	}
}

// TestTransformZeroRotation: без поворота преобразование — чистый сдвиг
func TestTransformZeroRotation(t *testing.T) {
	model := &LayerModel{MountX: 4, MountY: 1, MountZ: -2, Rotation: 0}

	local := ToLayerLocal(model, vec.Vec3{X: 10, Y: 5, Z: 3})
	assert.Equal(t, vec.Vec3{X: 6, Y: 4, Z: 5}, local)

	world := ToWorld(model, vec.Vec3{X: 0, Y: 0, Z: 0})
	assert.Equal(t, vec.Vec3{X: 4, Y: 1, Z: -2}, world)
}

// TestTransformQuarterTurn: один шаг поворота — 90° вокруг вертикали,
// Y не меняется
func TestTransformQuarterTurn(t *testing.T) {
	model := &LayerModel{Rotation: 1}

	world := ToWorld(model, vec.Vec3{X: 1, Y: 7, Z: 0})
	assert.Equal(t, 7, world.Y, "поворот не должен трогать Y")
	assert.Equal(t, vec.Vec3{X: 0, Y: 7, Z: 1}, world)
}

// TestTransformFullTurn: четыре шага — тождественное преобразование
func TestTransformFullTurn(t *testing.T) {
	p := vec.Vec3{X: 3, Y: 9, Z: -5}
	rotated := rotateY(p, 4)
	assert.Equal(t, p, rotated)
}
