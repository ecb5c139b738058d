package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liveshare"

var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rooms",
		Help:      "Rooms currently held in memory",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_connections",
		Help:      "WebSocket connections attached to a room",
	})

	EditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edits_total",
		Help:      "Content updates accepted by rooms",
	})

	DroppedDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_deliveries_total",
		Help:      "Broadcasts skipped because the peer could not take them",
	})

	ProtocolErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "protocol_errors_total",
		Help:      "Inbound frames dropped as malformed",
	}, []string{"reason"})

	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_writes_total",
		Help:      "Content write-backs by trigger (debounce, final) and result (ok, error, skipped)",
	}, []string{"trigger", "result"})

	StoreLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_loads_total",
		Help:      "Initial room loads by result",
	}, []string{"result"})

	StoreUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_up",
		Help:      "1 when the last store health check succeeded",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
