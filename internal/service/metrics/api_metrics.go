package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    APILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "sectorpulse",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of market API endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    APIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "sectorpulse",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by market API endpoint and kind",
        },
        []string{"endpoint", "kind"},
    )

    RateLimited = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "sectorpulse",
            Subsystem: "api",
            Name:      "rate_limited_total",
            Help:      "Requests rejected by the per-client limiter",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(APILatency, APIErrors, RateLimited)
    })
}

// ObserveSince records the latency of endpoint measured from start.
func ObserveSince(endpoint string, start time.Time) {
    APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func CountError(endpoint, kind string) {
    APIErrors.WithLabelValues(endpoint, kind).Inc()
}
