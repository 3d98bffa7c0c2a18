package metrics

import (
	"fmt"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "postbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	phaseDuration *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	nodes         *prom.CounterVec
	nodesSkipped  *prom.CounterVec
	pagesCreated  *prom.CounterVec
	queryErrors   prom.Counter
	pagesWritten  prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual build phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		nodes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Content nodes created by type",
		}, []string{"type"}),
		nodesSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sources_skipped_total",
			Help:      "Markdown sources skipped by reason",
		}, []string{"reason"}),
		pagesCreated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_created_total",
			Help:      "Page descriptors created by component",
		}, []string{"component"}),
		queryErrors: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Errors reported by content graph queries",
		}),
		pagesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Rendered pages written to the output directory",
		}),
	}
	reg.MustRegister(pr.phaseDuration, pr.buildDuration, pr.buildOutcome, pr.nodes, pr.nodesSkipped, pr.pagesCreated, pr.queryErrors, pr.pagesWritten)
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddNodes(nodeType string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.nodes.WithLabelValues(nodeType).Add(float64(n))
}

func (p *PrometheusRecorder) IncNodesSkipped(reason string) {
	if p == nil {
		return
	}
	p.nodesSkipped.WithLabelValues(reason).Inc()
}

// IncPagesCreated labels by component file name so label values stay stable
// across checkouts.
func (p *PrometheusRecorder) IncPagesCreated(component string) {
	if p == nil {
		return
	}
	p.pagesCreated.WithLabelValues(filepath.Base(component)).Inc()
}

func (p *PrometheusRecorder) AddQueryErrors(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.queryErrors.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesWritten(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pagesWritten.Add(float64(n))
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
