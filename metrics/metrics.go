package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics - 可观测性指标
 * ========================================================================
 * 职责: 指标注册与 /metrics 暴露
 * ======================================================================== */

var (
	// HTTPRequestDuration HTTP 请求延迟
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workshop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestTotal HTTP 请求总数
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// PrincipalCacheTotal 当事人缓存命中统计
	PrincipalCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "cache",
			Name:      "principal_lookup_total",
			Help:      "Principal cache lookups by outcome",
		},
		[]string{"outcome"}, // hit, miss, error
	)

	// AuditPublishTotal 审计事件发布统计
	AuditPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "audit",
			Name:      "publish_total",
			Help:      "Audit events published by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	// RegistrationTotal 注册结果统计
	RegistrationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "registration",
			Name:      "total",
			Help:      "Workshop registrations by outcome",
		},
		[]string{"outcome"}, // ok, rejected, error
	)
)

// RegisterMetricsEndpoint 注册 /metrics 端点
func RegisterMetricsEndpoint(app *fiber.App) {
	// 使用 fasthttpadaptor 将 promhttp.Handler 适配到 Fiber
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// NewCounter 创建自定义 Counter
func NewCounter(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewHistogram 创建自定义 Histogram
func NewHistogram(namespace, subsystem, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
