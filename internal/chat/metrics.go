package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_chat_polls_total",
		Help: "Chat poll cycles by status",
	}, []string{"status"})

	messagesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "live_chat_messages_emitted_total",
		Help: "Newly-seen chat messages emitted to subscribers",
	})

	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_chat_sends_total",
		Help: "Chat send requests by status",
	}, []string{"status"})
)
