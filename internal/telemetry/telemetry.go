// Package telemetry registers the prometheus instruments exposed on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Searches counts search requests by the source that served them.
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopmate_searches_total",
		Help: "Search requests served, labelled by source (cache, remote, local, merged).",
	}, []string{"source"})

	// RemoteFallbacks counts searches that fell back to the local executor.
	RemoteFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopmate_remote_fallbacks_total",
		Help: "Searches answered locally because the remote service was unavailable.",
	})

	// ChatTurns counts chat turns by outcome.
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopmate_chat_turns_total",
		Help: "Chat turns, labelled by outcome (resolved, clarification, failed, offline).",
	}, []string{"outcome"})

	// ChatRecoveries counts pending placeholders repaired after a restart.
	ChatRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopmate_chat_recoveries_total",
		Help: "Pending chat turns re-issued during controller initialization.",
	})

	// SessionsCleared counts explicit session clears.
	SessionsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopmate_sessions_cleared_total",
		Help: "Sessions removed by explicit clear requests.",
	})

	// JanitorSweeps counts expired sessions removed by the janitor.
	JanitorSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopmate_janitor_expired_sessions_total",
		Help: "Expired in-memory sessions removed by the janitor.",
	})
)
