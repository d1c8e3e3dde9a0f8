// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded by the background task runner.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

var (
	// MentionsReceived counts mention webhook calls by whether they were
	// accepted for processing.
	MentionsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpaca_mentions_received_total",
		Help: "Mention webhook calls, by accepted/rejected.",
	}, []string{"status"})

	ActionsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpaca_actions_dispatched_total",
		Help: "Deployment actions run on behalf of the model, by action name.",
	}, []string{"action"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alpaca_background_runs_total",
		Help: "Background runs finished, by outcome.",
	}, []string{"outcome"})
)
