package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Metrics on an instance-scoped Prometheus
// registry, so two instances (say, in tests) never collide on metric names.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu            sync.RWMutex
	counters      map[string]prometheus.Counter
	gauges        map[string]prometheus.Gauge
	histograms    map[string]prometheus.Histogram
	counterVecs   map[string]*prometheus.CounterVec
	gaugeVecs     map[string]*prometheus.GaugeVec
	histogramVecs map[string]*prometheus.HistogramVec
	buckets       map[string][]float64
}

func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		registry:      prometheus.NewRegistry(),
		counters:      make(map[string]prometheus.Counter),
		gauges:        make(map[string]prometheus.Gauge),
		histograms:    make(map[string]prometheus.Histogram),
		counterVecs:   make(map[string]*prometheus.CounterVec),
		gaugeVecs:     make(map[string]*prometheus.GaugeVec),
		histogramVecs: make(map[string]*prometheus.HistogramVec),
		buckets:       make(map[string][]float64),
	}
}

// SetBuckets overrides the default histogram buckets for the named metric.
// Must be called before Register.
func (p *PrometheusMetrics) SetBuckets(name string, buckets []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[name] = buckets
}

func (p *PrometheusMetrics) Register(name string, kind Kind, help string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case KindCounter:
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.registry.MustRegister(c)
		p.counters[name] = c
	case KindGauge:
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		p.registry.MustRegister(g)
		p.gauges[name] = g
	case KindHistogram:
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: p.bucketsFor(name),
		})
		p.registry.MustRegister(h)
		p.histograms[name] = h
	}
}

func (p *PrometheusMetrics) RegisterVec(name string, kind Kind, help string, labels []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case KindCounter:
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
		p.registry.MustRegister(cv)
		p.counterVecs[name] = cv
	case KindGauge:
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
		p.registry.MustRegister(gv)
		p.gaugeVecs[name] = gv
	case KindHistogram:
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: p.bucketsFor(name),
		}, labels)
		p.registry.MustRegister(hv)
		p.histogramVecs[name] = hv
	}
}

func (p *PrometheusMetrics) bucketsFor(name string) []float64 {
	if b, ok := p.buckets[name]; ok {
		return b
	}
	return prometheus.DefBuckets
}

func (p *PrometheusMetrics) Record(name string, value float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if c, ok := p.counters[name]; ok {
		c.Add(value)
		return
	}
	if g, ok := p.gauges[name]; ok {
		g.Set(value)
		return
	}
	if h, ok := p.histograms[name]; ok {
		h.Observe(value)
	}
}

func (p *PrometheusMetrics) RecordVec(name string, value float64, labelValues ...string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if cv, ok := p.counterVecs[name]; ok {
		cv.WithLabelValues(labelValues...).Add(value)
		return
	}
	if gv, ok := p.gaugeVecs[name]; ok {
		gv.WithLabelValues(labelValues...).Set(value)
		return
	}
	if hv, ok := p.histogramVecs[name]; ok {
		hv.WithLabelValues(labelValues...).Observe(value)
	}
}

// Handler returns the scrape endpoint for this instance's registry.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}
