package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tradingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_trading_calls_total",
			Help: "Trading API calls by call name and ack",
		},
		[]string{"call", "ack"},
	)

	tradingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_trading_call_duration_seconds",
			Help:    "Trading API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	aiCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_ai_calls_total",
			Help: "Vision/text completion calls by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit/miss)",
		},
		[]string{"cache", "result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_http_requests_total",
			Help: "API requests by route and status",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(tradingCalls, tradingDuration, aiCalls, cacheLookups, httpRequests)
}

// RecordTradingCall 记录一次 Trading 调用
func RecordTradingCall(call, ack string, d time.Duration) {
	if ack == "" {
		ack = "none"
	}
	tradingCalls.WithLabelValues(call, ack).Inc()
	tradingDuration.WithLabelValues(call).Observe(d.Seconds())
}

// RecordAICall 记录一次 AI 调用
func RecordAICall(purpose, status string) {
	aiCalls.WithLabelValues(purpose, status).Inc()
}

// RecordCacheLookup 记录缓存命中情况
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordHTTPRequest 记录 API 请求
func RecordHTTPRequest(route, method, status string) {
	httpRequests.WithLabelValues(route, method, status).Inc()
}
