// Package metrics exposes Prometheus instrumentation for the booking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

var (
	// JobTransitions counts lifecycle transitions by action and outcome.
	JobTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_transitions_total",
		Help:      "Total number of job lifecycle transitions.",
	}, []string{"action", "outcome"})

	// AcceptAttempts counts translator accept attempts by outcome.
	AcceptAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accept_attempts_total",
		Help:      "Total number of translator accept attempts.",
	}, []string{"outcome"})

	// DispatchAttempts counts notification delivery attempts by channel and result.
	DispatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_attempts_total",
		Help:      "Total number of notification delivery attempts.",
	}, []string{"channel", "result"})

	// DispatchDuration observes notification delivery latency per channel.
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Notification delivery latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"channel"})

	// SweeperExpired counts jobs expired by the pending-expiry sweeper.
	SweeperExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeper_expired_jobs_total",
		Help:      "Total number of pending jobs expired by the sweeper.",
	})
)
