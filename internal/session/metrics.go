package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_session_transitions_total",
		Help: "Session state transitions by target state",
	}, []string{"state"})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_session_failures_total",
		Help: "Session failures by lifecycle stage",
	}, []string{"stage"})
)
