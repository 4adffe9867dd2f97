package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标，所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration  *prometheus.HistogramVec
	RequestTotal     *prometheus.CounterVec
	Claims           prometheus.Counter
	GrantFailures    prometheus.Counter
	PersistFailures  *prometheus.CounterVec
	BackendFallbacks prometheus.Counter
	StorageUp        prometheus.Gauge
	SessionsIssued   prometheus.Counter
	CodesSwept       prometheus.Counter
}

// New 创建独立注册表上的指标集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		Claims: f.NewCounter(prometheus.CounterOpts{
			Name: "compensation_claims_total",
			Help: "Successful compensation claim transitions",
		}),
		GrantFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "compensation_grant_failures_total",
			Help: "Reward items that could not be delivered during a claim",
		}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_persist_failures_total",
			Help: "Failed writes to the storage backend",
		}, []string{"op"}),
		BackendFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "storage_backend_fallbacks_total",
			Help: "Relational backend initialisation failures that fell back to files",
		}),
		StorageUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "storage_up",
			Help: "Storage backend availability (1=up,0=down)",
		}),
		SessionsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "session_tokens_issued_total",
			Help: "Session tokens issued",
		}),
		CodesSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "verification_codes_swept_total",
			Help: "Expired verification codes removed by the sweeper",
		}),
	}
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware 记录HTTP请求耗时与状态
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
		m.RequestTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ClaimSucceeded 记录一次领取
func (m *Metrics) ClaimSucceeded(failedItems int) {
	if m == nil {
		return
	}
	m.Claims.Inc()
	m.GrantFailures.Add(float64(failedItems))
}

// PersistFailed 记录一次持久化失败
func (m *Metrics) PersistFailed(op string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(op).Inc()
}

// BackendFellBack 记录一次后端回退
func (m *Metrics) BackendFellBack() {
	if m == nil {
		return
	}
	m.BackendFallbacks.Inc()
}

// SetStorageUp 记录存储可用性
func (m *Metrics) SetStorageUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.StorageUp.Set(1)
		return
	}
	m.StorageUp.Set(0)
}

// SessionIssued 记录一次令牌签发
func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

// CodesRemoved 记录清理的过期验证码数量
func (m *Metrics) CodesRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CodesSwept.Add(float64(n))
}
