package vec

import (
	"fmt"
	"math"
)

// Vec2 представляет координаты чанка в горизонтальной плоскости (X/Z)
type Vec2 struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Key возвращает строковый ключ чанка для хранилищ вида "x:z"
func (v Vec2) Key() string {
	return fmt.Sprintf("%d:%d", v.X, v.Z)
}

// DistanceTo вычисляет расстояние до другого чанка
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}
