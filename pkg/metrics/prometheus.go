package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"pkg.jsn.cam/forge/pkg/forge"
)

const namespace = "forge"

// PrometheusRecorder implements forge.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration *prom.HistogramVec
	builds        *prom.CounterVec
	stageFailures *prom.CounterVec
	truncations   *prom.CounterVec
	persisted     *prom.CounterVec
}

var _ forge.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs the recorder and registers its metrics
// with reg. A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a single build through the factory pipeline",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
		}, []string{"factory", "mode"}),
		builds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Instances built by factory and mode",
		}, []string{"factory", "mode"}),
		stageFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline failures by factory and stage",
		}, []string{"factory", "stage"}),
		truncations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "depth_truncations_total",
			Help:      "Nested builds cut off by the depth limit",
		}, []string{"factory"}),
		persisted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persisted_total",
			Help:      "Instances handed to a persistence adapter",
		}, []string{"factory", "adapter"}),
	}
	reg.MustRegister(pr.buildDuration, pr.builds, pr.stageFailures, pr.truncations, pr.persisted)
	return pr
}

func (p *PrometheusRecorder) ObserveBuild(factory, mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(factory, mode).Observe(d.Seconds())
	p.builds.WithLabelValues(factory, mode).Inc()
}

func (p *PrometheusRecorder) IncStageFailure(factory, stage string) {
	if p == nil {
		return
	}
	p.stageFailures.WithLabelValues(factory, stage).Inc()
}

func (p *PrometheusRecorder) IncTruncated(factory string) {
	if p == nil {
		return
	}
	p.truncations.WithLabelValues(factory).Inc()
}

func (p *PrometheusRecorder) AddPersisted(factory, adapter string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.persisted.WithLabelValues(factory, adapter).Add(float64(n))
}

// WriteTextfile writes every metric in g to path in the text exposition format.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
