// Package observability exposes the pipeline's health as prometheus
// collectors, served on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkgraph_notifications_emitted_total",
		Help: "Durable notifications written by the dispatcher.",
	})

	PushesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkgraph_pushes_delivered_total",
		Help: "Live pushes handed to a session sink.",
	})

	PushesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkgraph_pushes_dropped_total",
		Help: "Live pushes discarded (receiver offline counts are not included).",
	})

	JobsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkgraph_fanout_jobs_dropped_total",
		Help: "Fanout jobs dropped because the queue was full.",
	})

	ReaperDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkgraph_reaper_deleted_total",
		Help: "Notifications deleted by the TTL reaper.",
	})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkgraph_live_sessions",
		Help: "Currently registered transport sessions.",
	})

	ProcessResidentMemory = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkgraph_process_resident_memory_bytes",
		Help: "Resident set size as reported by the stats worker.",
	})
)
