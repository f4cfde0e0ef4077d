// Package metrics exposes Prometheus counters for the claim pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClaimsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claims_submitted_total",
		Help: "Total number of claims accepted at submission.",
	})

	ClaimsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_decided_total",
		Help: "Total number of adjudicated claims by decision status.",
	}, []string{"status"})

	ClaimsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claims_failed_total",
		Help: "Total number of processing attempts that hit an infrastructure fault.",
	})

	ExtractionsBySource = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claim_extractions_total",
		Help: "Total number of document extractions by final source.",
	}, []string{"source"})

	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claim_processing_duration_seconds",
		Help:    "End-to-end duration of one claim processing attempt.",
		Buckets: prometheus.DefBuckets,
	})
)
