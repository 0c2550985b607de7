// Package metrics is a thin recording facade over a metrics backend. The
// dispatch layer records against the Metrics interface by name; wiring a
// concrete backend (Prometheus here) and exposing it for scraping stays in
// the operator's hands.
package metrics

// Kind selects the metric behavior: counters accumulate, gauges hold the
// last value, histograms observe a distribution.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return "unknown"
}

// Metrics records named measurements. Register must be called before Record
// for a given name; recording an unregistered name is silently dropped so
// instrumentation can never take the dispatch path down.
type Metrics interface {
	Register(name string, kind Kind, help string)
	RegisterVec(name string, kind Kind, help string, labels []string)
	Record(name string, value float64)
	RecordVec(name string, value float64, labelValues ...string)
}
