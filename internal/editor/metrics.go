package editor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики редактора регистрируются в дефолтном регистре
// и отдаются общим /metrics эндпоинтом REST-сервера.

var (
	actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "editor",
		Name:      "actions_total",
		Help:      "Число выполненных инструментов редактора по исходам.",
	}, []string{"action", "outcome"})

	stagedWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "editor",
		Name:      "staged_writes_total",
		Help:      "Число записей в staging-кеш через стандартный write-путь.",
	})

	commitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "editor",
		Name:      "commit_total",
		Help:      "Число операций commit-пайплайна.",
	}, []string{"mode"}) // apply | discard

	resolveTier = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "editor",
		Name:      "resolve_tier_total",
		Help:      "Число разрешений блока по ответившему тиру.",
	}, []string{"tier"})
)

func init() {
	prometheus.MustRegister(actionsTotal, stagedWrites, commitTotal, resolveTier)
}
