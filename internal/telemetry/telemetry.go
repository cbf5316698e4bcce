// Package telemetry holds the relay's Prometheus instruments.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_live_connections",
		Help: "Number of live websocket connections.",
	})

	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_appended_total",
		Help: "Messages accepted by the store.",
	})

	BroadcastsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcast_deliveries_total",
		Help: "Per-connection broadcast deliveries.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
