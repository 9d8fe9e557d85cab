package connector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricBinds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bqconnector_binds_total",
			Help: "Successful bind calls by level",
		}, []string{"level"})

	metricCacheHit = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bqconnector_cache_hit_total",
			Help: "Materialized reads served from the cache",
		})

	metricCacheMiss = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bqconnector_cache_miss_total",
			Help: "Materialized reads that went to the warehouse",
		})

	metricFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bqconnector_fetch_errors_total",
			Help: "Warehouse fetches that failed",
		})

	metricFetchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bqconnector_fetch_seconds",
			Help:    "Warehouse fetch latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		})
)
