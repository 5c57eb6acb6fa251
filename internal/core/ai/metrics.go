package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeRetried = "retried"
	outcomeFatal   = "fatal"
)

var attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "twomoro",
	Subsystem: "ai",
	Name:      "attempts_total",
	Help:      "Generation attempts per model candidate and outcome.",
}, []string{"model", "outcome"})
