package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/mlfabric/artifact"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/experimentation"
	"github.com/hupe1980/mlfabric/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const backendName = "Prometheus"

// Options configures an Exporter.
type Options struct {
	// Namespace prefixes every series name.
	Namespace string
	// Registry receives the collectors. Defaults to a fresh registry.
	Registry *prometheus.Registry
	// ArtifactStore receives logged images. Defaults to an in-memory store.
	ArtifactStore core.ArtifactStore
	Logger        logging.Logger
}

// Exporter is a Prometheus backed experimentation backend.
type Exporter struct {
	opts Options

	metric      *prometheus.GaugeVec
	metricStep  *prometheus.GaugeVec
	paramInfo   *prometheus.GaugeVec
	runActive   *prometheus.GaugeVec
	runsStarted *prometheus.CounterVec

	mu         sync.Mutex
	experiment string
	activeRun  string
}

// New builds an Exporter and registers its collectors.
func New(optFns ...func(o *Options)) (*Exporter, error) {
	opts := Options{
		Namespace: "mlfabric",
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.ArtifactStore == nil {
		opts.ArtifactStore = artifact.NewInMemoryStore()
	}

	e := &Exporter{
		opts: opts,
		metric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "metric",
			Help:      "Last value logged for a run metric",
		}, []string{"experiment", "run_id", "key"}),
		metricStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "metric_step",
			Help:      "Step of the last stepped value logged for a run metric",
		}, []string{"experiment", "run_id", "key"}),
		paramInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "param_info",
			Help:      "Run parameters, value carried as a label",
		}, []string{"experiment", "run_id", "key", "value"}),
		runActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "run_active",
			Help:      "1 while the run is open, 0 once it ended",
		}, []string{"experiment", "run_id"}),
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "runs_started_total",
			Help:      "Number of runs started per experiment",
		}, []string{"experiment"}),
	}

	for _, c := range []prometheus.Collector{e.metric, e.metricStep, e.paramInfo, e.runActive, e.runsStarted} {
		if err := opts.Registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return e, nil
}

// Registry returns the registry holding the exporter's collectors.
func (e *Exporter) Registry() *prometheus.Registry { return e.opts.Registry }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.opts.Registry, promhttp.HandlerOpts{})
}

// ArtifactStore returns the store receiving logged images.
func (e *Exporter) ArtifactStore() core.ArtifactStore { return e.opts.ArtifactStore }

// Name implements core.Experimentation.
func (e *Exporter) Name() string { return backendName }

// SetExperiment implements core.Experimentation. The artifact location is
// ignored; configure Options.ArtifactStore instead.
func (e *Exporter) SetExperiment(_ context.Context, name, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.experiment = name
	return nil
}

// StartRun implements core.Experimentation.
func (e *Exporter) StartRun(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeRun != "" {
		e.opts.Logger.Warn("Closing stale run before starting a new one", "run_id", e.activeRun)
		e.endLocked()
	}
	if e.experiment == "" {
		e.experiment = experimentation.DefaultExperiment
	}
	e.activeRun = uuid.NewString()
	e.runActive.WithLabelValues(e.experiment, e.activeRun).Set(1)
	e.runsStarted.WithLabelValues(e.experiment).Inc()
	return nil
}

func (e *Exporter) endLocked() {
	e.runActive.WithLabelValues(e.experiment, e.activeRun).Set(0)
	e.activeRun = ""
}

// EndRun implements core.Experimentation; without an open run it is a no-op.
func (e *Exporter) EndRun(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeRun != "" {
		e.endLocked()
	}
	return nil
}

// ActiveRunID returns the open run id or "".
func (e *Exporter) ActiveRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeRun
}

func (e *Exporter) runFor(op string) (string, error) {
	if e.activeRun == "" {
		return "", core.NewBackendError(backendName, op, experimentation.ErrNoActiveRun)
	}
	return e.activeRun, nil
}

// LogParam implements core.Experimentation. A changed value replaces the
// previous series.
func (e *Exporter) LogParam(ctx context.Context, key string, value any) error {
	return e.LogParams(ctx, core.Params{key: value})
}

// LogParams implements core.Experimentation.
func (e *Exporter) LogParams(_ context.Context, params core.Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	runID, err := e.runFor(experimentation.OpLogParams)
	if err != nil {
		return err
	}
	for k, v := range params {
		e.paramInfo.DeletePartialMatch(prometheus.Labels{"experiment": e.experiment, "run_id": runID, "key": k})
		e.paramInfo.WithLabelValues(e.experiment, runID, k, fmt.Sprint(v)).Set(1)
	}
	return nil
}

// LogMetric implements core.Experimentation.
func (e *Exporter) LogMetric(ctx context.Context, key string, value float64, step int64) error {
	return e.LogMetrics(ctx, core.Metrics{key: value}, step)
}

// LogMetrics implements core.Experimentation.
func (e *Exporter) LogMetrics(_ context.Context, metrics core.Metrics, step int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	runID, err := e.runFor(experimentation.OpLogMetrics)
	if err != nil {
		return err
	}
	for k, v := range metrics {
		e.metric.WithLabelValues(e.experiment, runID, k).Set(v)
		if step != core.NoStep {
			e.metricStep.WithLabelValues(e.experiment, runID, k).Set(float64(step))
		}
	}
	return nil
}

// LogImage implements core.Experimentation.
func (e *Exporter) LogImage(_ context.Context, title string, fig core.Figure) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	runID, err := e.runFor(experimentation.OpLogImage)
	if err != nil {
		return err
	}
	if _, err := artifact.SaveImage(e.opts.ArtifactStore, runID, title, fig); err != nil {
		return core.NewBackendError(backendName, experimentation.OpLogImage, err)
	}
	return nil
}

// LogEvaluationResult implements core.Experimentation.
func (e *Exporter) LogEvaluationResult(ctx context.Context, result core.EvaluationResult) error {
	return experimentation.LogEvaluationResult(ctx, e, result)
}
