// Package metrics 定义了服务暴露给 Prometheus 的指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_classifications_total",
			Help: "Number of classified chat messages by category",
		},
		[]string{"category", "follow_up"},
	)

	classificationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interviewiq_classification_confidence",
			Help:    "Confidence of classified chat messages",
			Buckets: []float64{0, 0.5, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
		},
	)

	classificationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interviewiq_classification_errors_total",
			Help: "Number of classifications that fell back to the error response",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_http_requests_total",
			Help: "Number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interviewiq_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordClassification 记录一次分类结果。
func RecordClassification(category string, followUp bool, confidence float64) {
	classifications.WithLabelValues(category, strconv.FormatBool(followUp)).Inc()
	classificationConfidence.Observe(confidence)
}

// RecordClassificationError 记录一次分类失败（已降级为兜底回复）。
func RecordClassificationError() {
	classificationErrors.Inc()
}

// RecordHTTPRequest 记录一次 HTTP 请求，path 应为路由模板而非原始路径。
func RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}
