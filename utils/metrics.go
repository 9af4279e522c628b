package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialboard_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LoginAttempts counts login outcomes: success, failed, limited.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialboard_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// LikeToggles counts like toggles by target (post, comment) and result (liked, unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialboard_like_toggles_total",
		Help: "Like toggles by target and result",
	}, []string{"target", "result"})

	// FeedCacheLookups counts latest-posts cache hits and misses.
	FeedCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialboard_feed_cache_lookups_total",
		Help: "Latest posts cache lookups by result",
	}, []string{"result"})
)
