// Package metrics 提供推荐请求的 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 请求结果。
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder 记录每种策略的请求数与耗时。
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	views    prometheus.Counter
}

// NewRecorder 在独立的 Registry 上注册指标，并附带 Go 运行时与进程指标。
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoprec_recommendations_total",
				Help: "Total number of recommendation requests by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shoprec_recommendation_duration_seconds",
				Help:    "Duration of recommendation requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		views: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shoprec_views_recorded_total",
			Help: "Total number of browsing history entries recorded",
		}),
	}
	reg.MustRegister(
		r.requests,
		r.duration,
		r.views,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe 记录一次推荐请求。r 为 nil 时什么也不做。
func (r *Recorder) Observe(strategy, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(strategy, outcome).Inc()
	r.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ViewRecorded 记录一次浏览写入。
func (r *Recorder) ViewRecorded() {
	if r == nil {
		return
	}
	r.views.Inc()
}

// Handler 返回 /metrics 的 HTTP handler。
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry 暴露底层 Registry，便于测试和注册额外的 collector。
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
