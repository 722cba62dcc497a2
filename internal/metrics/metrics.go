// Package metrics exposes Prometheus instrumentation for the notification
// and realtime subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks delivery and realtime counters.
type Metrics struct {
	NotificationsPersisted *prometheus.CounterVec
	NotificationsPushed    prometheus.Counter
	PushFailures           prometheus.Counter
	MarkReadTotal          *prometheus.CounterVec

	WSConnections     prometheus.Gauge
	WSMessagesTotal   *prometheus.CounterVec
	WSRoomJoinsTotal  *prometheus.CounterVec
	WSRoomLeavesTotal *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		NotificationsPersisted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_persisted_total",
				Help: "Notification rows written, by audience",
			},
			[]string{"audience"},
		),
		NotificationsPushed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notifications_pushed_total",
				Help: "Realtime push events emitted to inbox rooms",
			},
		),
		PushFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notification_push_failures_total",
				Help: "Realtime pushes that could not be delivered to any connection",
			},
		),
		MarkReadTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_marked_read_total",
				Help: "Read-state transitions, by operation (single or all)",
			},
			[]string{"op"},
		),
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websocket_active_connections",
				Help: "Currently open websocket connections",
			},
		),
		WSMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websocket_messages_total",
				Help: "Websocket messages, by direction",
			},
			[]string{"direction"},
		),
		WSRoomJoinsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websocket_room_joins_total",
				Help: "Room joins, by room kind",
			},
			[]string{"kind"},
		),
		WSRoomLeavesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websocket_room_leaves_total",
				Help: "Room leaves, by room kind",
			},
			[]string{"kind"},
		),
	}
}
