package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	synthesisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twomoro",
		Subsystem: "synthesis",
		Name:      "results_total",
		Help:      "AI synthesis results per function and source (synthesized or fallback).",
	}, []string{"function", "source"})

	habitTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twomoro",
		Subsystem: "habits",
		Name:      "toggles_total",
		Help:      "Habit toggle requests by result (completed, uncompleted, noop).",
	}, []string{"result"})
)

func observeSynthesis(function string, fallback bool) {
	source := "synthesized"
	if fallback {
		source = "fallback"
	}
	synthesisTotal.WithLabelValues(function, source).Inc()
}
