package signaling

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicerelay"

var (
	connectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_total",
		Help:      "Accepted signaling connections.",
	})
	messagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_relayed_total",
		Help:      "Signaling envelopes fanned out to rooms.",
	}, []string{"type"})
	deliveryFails = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_failures_total",
		Help:      "Per-recipient sends that failed and were dropped.",
	})
)

var observeOnce sync.Once

// ObserveRegistry exports room and connection gauges for the registry.
// Call once, from the service wiring.
func ObserveRegistry(r *Registry) {
	observeOnce.Do(func() {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one connection.",
		}, func() float64 { return float64(r.RoomCount()) })
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Connections registered over all rooms.",
		}, func() float64 { return float64(r.ConnCount()) })
	})
}

// metricType collapses unrecognized message types into one label value
// to keep the metric cardinality bounded.
func metricType(t string) string {
	switch t {
	case MsgJoin, MsgOffer, MsgAnswer, MsgIce, MsgUserLeft:
		return t
	}
	return "other"
}
