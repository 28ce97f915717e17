package validator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricProbe = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxprobe_probe_total",
			Help: "SMTP probes by outcome.",
		},
		[]string{
			"outcome", // accepted, rejected, indeterminate
		},
	)
	metricProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mxprobe_probe_duration_seconds",
			Help:    "Duration of SMTP probes, from dial until the connection is closed.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{
			"outcome",
		},
	)
	metricMXLookup = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxprobe_mx_lookup_total",
			Help: "MX lookups by result.",
		},
		[]string{
			"result", // ok, error, none, invalid
		},
	)
)
