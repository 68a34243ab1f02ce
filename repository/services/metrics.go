package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionMetric = promauto.NewCounter(prometheus.CounterOpts{Name: "thesis_submissions", Help: "Thesis submissions accepted"})
	decisionMetric   = promauto.NewCounterVec(prometheus.CounterOpts{Name: "thesis_decisions", Help: "Review decisions recorded"}, []string{"outcome"})
	publishMetric    = promauto.NewCounter(prometheus.CounterOpts{Name: "thesis_publications", Help: "Theses published"})
)
