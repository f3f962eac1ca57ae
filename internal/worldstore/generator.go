package worldstore

import (
	"context"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/vec"
)

// BakedWriter принимает сгенерированные baked-чанки.
type BakedWriter interface {
	SaveBakedChunk(ctx context.Context, worldID string, chunk vec.Vec2, blocks []block.Block) error
}

// DevGenerator наполняет baked-хранилище простым перлин-террейном.
// Нужен только для локальной разработки: настоящий baked-тир собирает
// отдельный сервис компоновки мира.
type DevGenerator struct {
	noise     *perlin.Perlin
	seed      int64
	maxHeight int
}

// NewDevGenerator создаёт генератор с указанным сидом.
func NewDevGenerator(seed int64) *DevGenerator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав

	return &DevGenerator{
		noise:     perlin.NewPerlin(alpha, beta, n, seed),
		seed:      seed,
		maxHeight: 24,
	}
}

// heightAt возвращает высоту поверхности в мировой точке (x, z)
func (g *DevGenerator) heightAt(x, z int) int {
	// Noise2D отдаёт от -1 до 1; приводим к 0..1
	noise := (g.noise.Noise2D(float64(x)/64.0, float64(z)/64.0) + 1.0) / 2.0
	return 1 + int(noise*float64(g.maxHeight-1))
}

// GenerateChunk генерирует и сохраняет один baked-чанк.
func (g *DevGenerator) GenerateChunk(ctx context.Context, writer BakedWriter, worldID string, chunk vec.Vec2) error {
	blocks := make([]block.Block, 0, 16*16*4)

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			wx := chunk.X*16 + lx
			wz := chunk.Z*16 + lz
			height := g.heightAt(wx, wz)

			for y := 0; y <= height; y++ {
				b := block.Block{
					Pos:    vec.Vec3{X: wx, Y: y, Z: wz},
					TypeID: "stone",
				}
				if y == height {
					b.TypeID = "grass"
					// Поверхностные блоки — деформируемые кубы
					b.Offsets = make([]float64, block.OffsetCount)
				} else if y >= height-2 {
					b.TypeID = "dirt"
				}
				blocks = append(blocks, b)
			}
		}
	}

	return writer.SaveBakedChunk(ctx, worldID, chunk, blocks)
}

// GenerateArea генерирует квадратную область чанков вокруг начала координат.
func (g *DevGenerator) GenerateArea(ctx context.Context, writer BakedWriter, worldID string, radius int) error {
	for cx := -radius; cx <= radius; cx++ {
		for cz := -radius; cz <= radius; cz++ {
			if err := g.GenerateChunk(ctx, writer, worldID, vec.Vec2{X: cx, Z: cz}); err != nil {
				return err
			}
		}
	}
	return nil
}
