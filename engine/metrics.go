package engine

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "huoyan"

// 每个引擎使用自己的注册表
type Metrics struct {
	registry *prometheus.Registry

	linkRequests    *prometheus.CounterVec
	linkDuration    prometheus.Histogram
	chunks          prometheus.Counter
	mentions        prometheus.Counter
	emptyCandidates prometheus.Counter
	rerankDuration  prometheus.Histogram
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linkRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "link_requests_total",
			Help:      "Number of link requests by outcome.",
		}, []string{"status"}),
		linkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "link_duration_seconds",
			Help:      "Latency of link requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chunks_total",
			Help:      "Number of chunks produced by the chunker.",
		}),
		mentions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mentions_total",
			Help:      "Number of mentions linked.",
		}),
		emptyCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mentions_without_candidates_total",
			Help:      "Number of mentions that produced no candidate entity.",
		}),
		rerankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rerank_duration_seconds",
			Help:      "Latency of contextual reranking per chunk.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.linkRequests,
		m.linkDuration,
		m.chunks,
		m.mentions,
		m.emptyCandidates,
		m.rerankDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
