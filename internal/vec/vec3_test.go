package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestToChunkCoords проверяет пересчёт мировых координат в координаты чанка,
// включая отрицательные значения (арифметический сдвиг, не усечение)
func TestToChunkCoords(t *testing.T) {
	cases := []struct {
		pos   Vec3
		chunk Vec2
	}{
		{Vec3{X: 0, Y: 0, Z: 0}, Vec2{X: 0, Z: 0}},
		{Vec3{X: 15, Y: 64, Z: 15}, Vec2{X: 0, Z: 0}},
		{Vec3{X: 16, Y: 0, Z: 16}, Vec2{X: 1, Z: 1}},
		{Vec3{X: -1, Y: 0, Z: -1}, Vec2{X: -1, Z: -1}},
		{Vec3{X: -16, Y: 0, Z: -17}, Vec2{X: -1, Z: -2}},
	}

	for _, c := range cases {
		assert.Equal(t, c.chunk, c.pos.ToChunkCoords(), "pos=%v", c.pos)
	}
}

// TestLocalInChunk проверяет локальные координаты внутри чанка
func TestLocalInChunk(t *testing.T) {
	assert.Equal(t, Vec3{X: 5, Y: 30, Z: 15}, Vec3{X: 21, Y: 30, Z: 31}.LocalInChunk())
	assert.Equal(t, Vec3{X: 15, Y: 0, Z: 15}, Vec3{X: -1, Y: 0, Z: -1}.LocalInChunk())
}

// TestNeighbours6 проверяет, что соседи уникальны и на расстоянии 1
func TestNeighbours6(t *testing.T) {
	center := Vec3{X: 2, Y: -4, Z: 7}
	seen := make(map[Vec3]bool)

	for _, n := range center.Neighbours6() {
		assert.False(t, seen[n], "сосед %v встречен дважды", n)
		seen[n] = true

		d := n.Sub(center)
		dist := abs(d.X) + abs(d.Y) + abs(d.Z)
		assert.Equal(t, 1, dist, "сосед %v не примыкает к центру", n)
	}
	assert.Len(t, seen, 6)
}

func TestVec2Key(t *testing.T) {
	assert.Equal(t, "3:-7", Vec2{X: 3, Z: -7}.Key())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
