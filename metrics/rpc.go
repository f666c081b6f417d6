package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goblinstake_rpc_calls_total",
		Help: "Number of json-rpc calls sent to the cluster",
	}, []string{"client", "method", "status"})

	rpcCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goblinstake_rpc_call_duration_seconds",
		Help:    "Duration of json-rpc calls sent to the cluster",
		Buckets: prometheus.DefBuckets,
	}, []string{"client", "method"})

	rpcRateLimitWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goblinstake_rpc_rate_limit_wait_seconds_total",
		Help: "Time spent waiting for the client side rate limiter",
	}, []string{"client"})

	txSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goblinstake_transactions_total",
		Help: "Number of program transactions by method and outcome",
	}, []string{"method", "outcome"})
)

// ObserveRPCCall records the outcome and duration of a single json-rpc call.
func ObserveRPCCall(client string, method string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	rpcCallsTotal.WithLabelValues(client, method, status).Inc()
	rpcCallDuration.WithLabelValues(client, method).Observe(time.Since(started).Seconds())
}

func ObserveRateLimitWait(client string, waited time.Duration) {
	if waited <= 0 {
		return
	}
	rpcRateLimitWait.WithLabelValues(client).Add(waited.Seconds())
}

// ObserveTransaction counts a program transaction; outcome is "confirmed" or "failed".
func ObserveTransaction(method string, outcome string) {
	txSubmitted.WithLabelValues(method, outcome).Inc()
}
