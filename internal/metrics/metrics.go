// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HubSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tourney_hub_subscribers",
			Help: "Current number of live subscribers per broadcast hub",
		},
		[]string{"hub"},
	)

	HubEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourney_hub_events_published_total",
			Help: "Total number of events published per hub and kind",
		},
		[]string{"hub", "kind"},
	)

	HubSubscribersDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourney_hub_subscribers_dropped_total",
			Help: "Subscribers removed by the hub because delivery failed",
		},
		[]string{"hub"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tourney_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var (
	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourney_relay_messages_total",
			Help: "Events exchanged with other instances through Redis",
		},
		[]string{"hub", "direction"},
	)

	RelayDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourney_relay_dropped_total",
			Help: "Events not relayed because the outbound queue was full or Redis failed",
		},
		[]string{"hub"},
	)
)
