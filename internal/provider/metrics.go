package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks gateway cache hits by operation.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokecollect_provider_cache_hits_total",
			Help: "Total number of provider gateway cache hits",
		},
		[]string{"operation"},
	)

	// CacheMisses tracks gateway cache misses by operation.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokecollect_provider_cache_misses_total",
			Help: "Total number of provider gateway cache misses",
		},
		[]string{"operation"},
	)

	// UpstreamErrors tracks failed provider calls by operation.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokecollect_provider_upstream_errors_total",
			Help: "Total number of failed card-data provider calls",
		},
		[]string{"operation"},
	)
)
