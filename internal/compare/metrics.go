package compare

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_comparator_comparisons_total",
		Help: "Number of comparisons run, by mode.",
	}, []string{"mode"})

	skippedOutputsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_comparator_skipped_outputs_total",
		Help: "Number of visualizer runs that produced no output, by visualizer and reason.",
	}, []string{"visualizer", "reason"})
)
