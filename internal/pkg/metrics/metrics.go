// Package metrics holds the Prometheus counters of the relay bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_ingest_total",
			Help: "Inbound media events by source and result.",
		},
		[]string{"source", "result"},
	)

	GateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gate_total",
			Help: "Access gate evaluations by stage and result.",
		},
		[]string{"stage", "result"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Media delivered to users by kind.",
		},
		[]string{"kind"},
	)

	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deletions_total",
			Help: "Self-destruct deletions by result.",
		},
		[]string{"result"},
	)

	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_thumbnails_total",
			Help: "Thumbnail acquisitions by result.",
		},
		[]string{"result"},
	)

	RecordCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_record_cache_total",
			Help: "Record cache lookups by result.",
		},
		[]string{"result"},
	)
)
