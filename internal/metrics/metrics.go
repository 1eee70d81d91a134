package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"stableswapDeployer/internal/model"
)

const namespace = "stableswap_deployer"

// Recorder collects per-step metrics for one process.
type Recorder struct {
	registry *prometheus.Registry

	steps     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	retries   *prometheus.CounterVec
	lastRunOK prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Workflow steps by name and status",
		}, []string{"step", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time per workflow step including retries",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"step"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Attempts beyond the first, by step",
		}, []string{"step"}),
		lastRunOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed every step",
		}),
	}
	r.registry.MustRegister(r.steps, r.duration, r.retries, r.lastRunOK)
	r.registry.MustRegister(collectors.NewGoCollector())
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStep records one step outcome.
func (r *Recorder) ObserveStep(record model.StepRecord) {
	r.steps.WithLabelValues(record.Step, string(record.Status)).Inc()
	if record.Status == model.StepSkipped {
		return
	}
	r.duration.WithLabelValues(record.Step).Observe(record.Duration().Seconds())
	if record.Attempts > 1 {
		r.retries.WithLabelValues(record.Step).Add(float64(record.Attempts - 1))
	}
}

// RunFinished sets the last run gauge.
func (r *Recorder) RunFinished(ok bool) {
	if ok {
		r.lastRunOK.Set(1)
		return
	}
	r.lastRunOK.Set(0)
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
