package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for InboundEvents.
const (
	OutcomeDelivered     = "delivered"
	OutcomeSuppressed    = "suppressed"
	OutcomeDiscarded     = "discarded"
	OutcomeInvalid       = "invalid"
	OutcomeUnrecognized  = "unrecognized"
	OutcomeDeliverFailed = "deliver_failed"
)

var (
	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briareos",
		Name:      "inbound_events_total",
		Help:      "Realtime frames processed by the normalizer, by outcome.",
	}, []string{"outcome"})

	ReconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briareos",
		Name:      "reconnect_attempts_total",
		Help:      "Failed realtime reopen attempts per workspace.",
	}, []string{"team_id"})

	ConnectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "briareos",
		Name:      "connection_state",
		Help:      "1 for the current connection state of each workspace, 0 otherwise.",
	}, []string{"team_id", "state"})

	DirectoryRefresh = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "briareos",
		Name:      "directory_refresh_total",
		Help:      "Channel directory refreshes, by result.",
	}, []string{"result"})
)

// SetConnectionState marks state as the only active state for teamID.
func SetConnectionState(teamID, state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		ConnectionState.WithLabelValues(teamID, s).Set(v)
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
