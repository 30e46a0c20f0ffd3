package experimentation

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/mlfabric/artifact"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
)

// Call is one recorded backend invocation.
type Call struct {
	Op      string
	RunID   string
	Key     string
	Value   any
	Params  core.Params
	Metrics core.Metrics
	Step    int64
}

// MetricRecord is one logged metric value.
type MetricRecord struct {
	Key       string
	Value     float64
	Step      int64
	Timestamp time.Time
}

// Run is a snapshot of a tracked run.
type Run struct {
	ID         string
	Experiment string
	Status     RunStatus
	Params     core.Params
	Metrics    []MetricRecord
	Artifacts  []string
	StartedAt  time.Time
	EndedAt    time.Time
}

func (r *Run) clone() Run {
	cp := *r
	cp.Params = r.Params.Clone()
	cp.Metrics = slices.Clone(r.Metrics)
	cp.Artifacts = slices.Clone(r.Artifacts)
	return cp
}

// InMemoryOptions configures an InMemory backend.
type InMemoryOptions struct {
	// Name reported by the backend. Defaults to "InMemory".
	Name string
	// ArtifactStore receives logged images. Defaults to an in-memory store.
	ArtifactStore core.ArtifactStore
	// FailOn injects an error for the given operation names (tests).
	FailOn map[string]error
	Logger logging.Logger
}

// InMemory is a volatile experimentation backend that keeps runs in process
// memory and records every call in order. It is safe for concurrent use.
type InMemory struct {
	mu         sync.Mutex
	opts       InMemoryOptions
	experiment string
	location   string
	active     *Run
	runs       []*Run
	calls      []Call
}

// NewInMemory constructs an empty in-memory backend.
func NewInMemory(optFns ...func(o *InMemoryOptions)) *InMemory {
	opts := InMemoryOptions{
		Name:          "InMemory",
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemory{opts: opts}
}

// Name implements core.Experimentation.
func (m *InMemory) Name() string { return m.opts.Name }

// fail returns the injected error for op, wrapped as a backend error.
func (m *InMemory) fail(op string) error {
	if err, ok := m.opts.FailOn[op]; ok {
		return core.NewBackendError(m.opts.Name, op, err)
	}
	return nil
}

func (m *InMemory) record(c Call) {
	if m.active != nil {
		c.RunID = m.active.ID
	}
	m.calls = append(m.calls, c)
}

// requireRun is called with the lock held.
func (m *InMemory) requireRun(op string) error {
	if err := m.fail(op); err != nil {
		return err
	}
	if m.active == nil {
		return core.NewBackendError(m.opts.Name, op, ErrNoActiveRun)
	}
	return nil
}

// SetExperiment implements core.Experimentation.
func (m *InMemory) SetExperiment(_ context.Context, name, artifactLocation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpSetExperiment); err != nil {
		return err
	}
	m.experiment = name
	m.location = artifactLocation
	m.record(Call{Op: OpSetExperiment, Key: name, Value: artifactLocation})
	return nil
}

// StartRun implements core.Experimentation. A run that is still open is
// finished first.
func (m *InMemory) StartRun(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpStartRun); err != nil {
		return err
	}
	if m.active != nil {
		m.opts.Logger.Warn("Closing stale run before starting a new one", "run_id", m.active.ID)
		m.endLocked()
	}
	experiment := m.experiment
	if experiment == "" {
		experiment = DefaultExperiment
	}
	run := &Run{
		ID:         uuid.NewString(),
		Experiment: experiment,
		Status:     RunStatusRunning,
		Params:     core.Params{},
		StartedAt:  time.Now().UTC(),
	}
	m.runs = append(m.runs, run)
	m.active = run
	m.record(Call{Op: OpStartRun})
	return nil
}

func (m *InMemory) endLocked() {
	m.record(Call{Op: OpEndRun})
	m.active.Status = RunStatusFinished
	m.active.EndedAt = time.Now().UTC()
	m.active = nil
}

// EndRun implements core.Experimentation; without an open run it is a no-op.
func (m *InMemory) EndRun(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpEndRun); err != nil {
		return err
	}
	if m.active == nil {
		return nil
	}
	m.endLocked()
	return nil
}

// LogParam implements core.Experimentation. Existing keys are overwritten.
func (m *InMemory) LogParam(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireRun(OpLogParam); err != nil {
		return err
	}
	m.active.Params[key] = value
	m.record(Call{Op: OpLogParam, Key: key, Value: value})
	return nil
}

// LogParams implements core.Experimentation.
func (m *InMemory) LogParams(_ context.Context, params core.Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireRun(OpLogParams); err != nil {
		return err
	}
	for k, v := range params {
		m.active.Params[k] = v
	}
	m.record(Call{Op: OpLogParams, Params: params.Clone()})
	return nil
}

// LogMetric implements core.Experimentation.
func (m *InMemory) LogMetric(_ context.Context, key string, value float64, step int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireRun(OpLogMetric); err != nil {
		return err
	}
	m.active.Metrics = append(m.active.Metrics, MetricRecord{Key: key, Value: value, Step: step, Timestamp: time.Now().UTC()})
	m.record(Call{Op: OpLogMetric, Key: key, Value: value, Step: step})
	return nil
}

// LogMetrics implements core.Experimentation. Keys are stored in sorted order.
func (m *InMemory) LogMetrics(_ context.Context, metrics core.Metrics, step int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireRun(OpLogMetrics); err != nil {
		return err
	}
	now := time.Now().UTC()
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		m.active.Metrics = append(m.active.Metrics, MetricRecord{Key: k, Value: metrics[k], Step: step, Timestamp: now})
	}
	m.record(Call{Op: OpLogMetrics, Metrics: metrics.Clone(), Step: step})
	return nil
}

// LogImage implements core.Experimentation.
func (m *InMemory) LogImage(_ context.Context, title string, fig core.Figure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireRun(OpLogImage); err != nil {
		return err
	}
	name, err := artifact.SaveImage(m.opts.ArtifactStore, m.active.ID, title, fig)
	if err != nil {
		return core.NewBackendError(m.opts.Name, OpLogImage, err)
	}
	m.active.Artifacts = append(m.active.Artifacts, name)
	m.record(Call{Op: OpLogImage, Key: title, Value: name})
	return nil
}

// LogEvaluationResult implements core.Experimentation.
func (m *InMemory) LogEvaluationResult(ctx context.Context, result core.EvaluationResult) error {
	m.mu.Lock()
	err := m.fail(OpLogEvaluationResult)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return LogEvaluationResult(ctx, m, result)
}

// Experiment returns the selected experiment name and artifact location.
func (m *InMemory) Experiment() (name, artifactLocation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.experiment, m.location
}

// ActiveRun returns a snapshot of the open run, if any.
func (m *InMemory) ActiveRun() (Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Run{}, false
	}
	return m.active.clone(), true
}

// ActiveRunID implements core.RunTracker.
func (m *InMemory) ActiveRunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.ID
}

// Runs returns snapshots of all runs in start order.
func (m *InMemory) Runs() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, len(m.runs))
	for i, r := range m.runs {
		out[i] = r.clone()
	}
	return out
}

// OpenRuns counts runs that are still RUNNING.
func (m *InMemory) OpenRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.runs {
		if r.Status == RunStatusRunning {
			n++
		}
	}
	return n
}

// Calls returns the recorded calls in order.
func (m *InMemory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallsFor returns the recorded calls for a single operation.
func (m *InMemory) CallsFor(op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ArtifactStore returns the store receiving logged images.
func (m *InMemory) ArtifactStore() core.ArtifactStore { return m.opts.ArtifactStore }
