package editor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/annel0/voxel-editor/internal/block"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/vec"
)

const (
	// smoothFactor — доля пути к среднему за один шаг сглаживания
	smoothFactor = 0.3
	// roughFactor — доля расхождения от среднего за один шаг огрубления
	roughFactor = 0.2
	// roughJitter — амплитуда равномерного шума при огрублении
	roughJitter = 0.05
	// offsetLimit — жёсткая граница значений offsets
	offsetLimit = 0.5
	// writeThreshold — минимальное изменение компоненты, оправдывающее запись
	writeThreshold = 0.001
)

// Smoother реализует геометрическое сглаживание и огрубление рёбер.
// Оператор однопроходный: центр и его 6 соседей по осям, каждая пара
// обрабатывается независимо. Это не глобальная релаксация — пользователь
// добивается результата повторными вызовами.
type Smoother struct {
	resolver *Resolver
	log      *logging.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSmoother создаёт оператор сглаживания.
// Источник случайности инжектируется, чтобы тесты были детерминированными.
func NewSmoother(resolver *Resolver, rng *rand.Rand) *Smoother {
	return &Smoother{
		resolver: resolver,
		rng:      rng,
		log:      logging.GetEditorLogger(),
	}
}

// Smooth сдвигает offsets центра и каждого кубического соседа
// на 30% к их попарному среднему.
func (s *Smoother) Smooth(ctx context.Context, worldID, sessionID string, center vec.Vec3) Outcome {
	return s.run(ctx, worldID, sessionID, center, false)
}

// Rough расталкивает offsets центра и соседей от среднего с равномерным
// шумом, результат зажимается в [-0.5, 0.5].
func (s *Smoother) Rough(ctx context.Context, worldID, sessionID string, center vec.Vec3) Outcome {
	return s.run(ctx, worldID, sessionID, center, true)
}

func (s *Smoother) run(ctx context.Context, worldID, sessionID string, center vec.Vec3, rough bool) Outcome {
	cb, _, err := s.resolver.Resolve(ctx, worldID, sessionID, center)
	if err != nil {
		return Failed(fmt.Errorf("smoothing resolve failed: %w", err))
	}

	// Не-куб (включая воздух) — штатный частый случай, а не ошибка
	if !cb.IsCube() {
		return Skipped(SkipNotCube)
	}

	// Рабочая копия центра накапливает изменения от всех шести пар;
	// записывается один раз в конце
	centerOffsets := append([]float64(nil), cb.Offsets...)
	centerChanged := false
	neighboursWritten := 0

	for _, npos := range center.Neighbours6() {
		nb, _, err := s.resolver.Resolve(ctx, worldID, sessionID, npos)
		if err != nil {
			return Failed(fmt.Errorf("neighbour resolve failed: %w", err))
		}
		if !nb.IsCube() {
			continue
		}

		neighbourOffsets := append([]float64(nil), nb.Offsets...)
		neighbourChanged := false

		for i := 0; i < block.OffsetCount; i++ {
			v1, v2 := centerOffsets[i], neighbourOffsets[i]
			avg := (v1 + v2) / 2

			var n1, n2 float64
			if rough {
				d := (avg-v1)*roughFactor + s.jitter()
				n1 = clampOffset(v1 - d)
				n2 = clampOffset(v2 + d)
			} else {
				n1 = v1 + (avg-v1)*smoothFactor
				n2 = v2 + (avg-v2)*smoothFactor
			}

			if math.Abs(n1-v1) > writeThreshold {
				centerOffsets[i] = n1
				centerChanged = true
			}
			if math.Abs(n2-v2) > writeThreshold {
				neighbourOffsets[i] = n2
				neighbourChanged = true
			}
		}

		if neighbourChanged {
			updated := nb.Clone()
			updated.Offsets = neighbourOffsets
			if out := s.resolver.Write(ctx, worldID, sessionID, updated, npos); out.Kind != OutcomeApplied {
				return out
			}
			neighboursWritten++
		}
	}

	if !centerChanged {
		if neighboursWritten > 0 {
			return Applied()
		}
		return Skipped(SkipNoChanges)
	}

	updated := cb.Clone()
	updated.Offsets = centerOffsets
	return s.resolver.Write(ctx, worldID, sessionID, updated, center)
}

// jitter возвращает U(-roughJitter, roughJitter)
func (s *Smoother) jitter() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return (s.rng.Float64()*2 - 1) * roughJitter
}

func clampOffset(v float64) float64 {
	if v > offsetLimit {
		return offsetLimit
	}
	if v < -offsetLimit {
		return -offsetLimit
	}
	return v
}
