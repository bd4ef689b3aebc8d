// Package metrics registers the business metrics of the metadata backend.
// HTTP request metrics live in the middleware package; the gauges and
// counters here are updated from the hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsActive tracks currently registered WebSocket connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tv_ws_connections_active",
			Help: "Currently registered WebSocket connections",
		},
	)

	// EventsBroadcastTotal counts events pushed to at least one connection.
	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tv_events_broadcast_total",
			Help: "Mutation events broadcast, by event type",
		},
		[]string{"type"},
	)

	// ConnectionsEvictedTotal counts connections dropped from the registry
	// because a push failed or the socket was no longer open.
	ConnectionsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tv_ws_connections_evicted_total",
			Help: "Connections evicted during broadcast",
		},
	)
)
