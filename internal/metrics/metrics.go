package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live rooms
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_rooms_active",
			Help: "Number of rooms held by the live registry",
		},
	)

	RoomsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_rooms_evicted_total",
			Help: "Total number of empty rooms evicted after the grace period",
		},
	)

	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_votes_total",
			Help: "Total number of accepted live votes",
		},
		[]string{"vote"}, // "like", "dislike"
	)

	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_matches_total",
			Help: "Total number of unanimous matches announced",
		},
		[]string{"trigger"}, // "vote", "disconnect"
	)

	// Gateway
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_ws_connections_active",
			Help: "Number of open gateway connections",
		},
	)

	WSEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_ws_events_total",
			Help: "Total number of inbound gateway events by type and outcome",
		},
		[]string{"type", "result"},
	)

	WSDroppedClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_ws_dropped_clients_total",
			Help: "Total number of clients dropped because their send queue was full",
		},
	)

	// Durable sessions
	SessionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_session_ops_total",
			Help: "Total number of durable session operations by outcome",
		},
		[]string{"op", "result"},
	)
)

// Result labels an operation outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
