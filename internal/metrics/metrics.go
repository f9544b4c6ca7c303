// Package metrics defines the prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// ConnectedClients tracks the current number of live viewer connections
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Current number of live viewer connections",
		},
	)

	// BroadcastsQueued counts broadcast calls by event type
	BroadcastsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_queued_total",
			Help: "Broadcast calls accepted into the pending map by event type",
		},
		[]string{"type"},
	)

	// BroadcastsCoalesced counts pending payloads overwritten before a flush
	BroadcastsCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_coalesced_total",
			Help: "Pending payloads overwritten by a newer one of the same type",
		},
		[]string{"type"},
	)

	// FramesSent counts websocket frames delivered to clients
	FramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_frames_sent_total",
			Help: "Websocket frames handed to client writers",
		},
	)

	// SlowClientSkips counts deliveries skipped due to backpressure
	SlowClientSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_client_skips_total",
			Help: "Flush deliveries skipped because a client writer was full",
		},
	)

	// HeartbeatReaps counts connections removed by the heartbeat
	HeartbeatReaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_heartbeat_reaps_total",
			Help: "Connections closed for missing a liveness probe",
		},
	)

	// FlushDuration tracks time spent delivering one flush batch
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hub_flush_duration_seconds",
			Help:    "Duration of one flush cycle",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// DroppedBroadcasts counts broadcasts dropped because the hub was overloaded
	DroppedBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_dropped_broadcasts_total",
			Help: "Broadcast calls dropped because the command channel was full",
		},
	)
)

// Snapshot metrics
var (
	// SnapshotWrites counts snapshot persistence attempts by status
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_writes_total",
			Help: "Snapshot persistence attempts by status",
		},
		[]string{"status"},
	)

	// SnapshotWriteDuration tracks snapshot write latency
	SnapshotWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_write_duration_seconds",
			Help:    "Snapshot write duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)
)

// Connection limit metrics
var (
	// RejectedConnections counts websocket connections rejected by the limiter
	RejectedConnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_rejected_connections_total",
			Help: "Websocket connections rejected by the limiter, by reason",
		},
		[]string{"reason"},
	)
)
