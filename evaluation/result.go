package evaluation

import (
	"fmt"
	"slices"

	"github.com/hupe1980/mlfabric/core"
)

// Result is an immutable scalar evaluation result.
type Result struct {
	metrics core.Metrics
}

// NewResult copies m into a new Result.
func NewResult(m core.Metrics) *Result {
	return &Result{metrics: m.Clone()}
}

// Metrics returns a copy of the metric mapping.
func (r *Result) Metrics() (core.Metrics, error) {
	return r.metrics.Clone(), nil
}

// Get returns a single metric value.
func (r *Result) Get(name string) (float64, bool) {
	v, ok := r.metrics[name]
	return v, ok
}

func (r *Result) String() string {
	keys := make([]string, 0, len(r.metrics))
	for k := range r.metrics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %g", k, r.metrics[k])
	}
	return s
}

// StepMetrics is an immutable, step indexed evaluation result (per epoch,
// per fold, ...). Steps keep insertion order.
type StepMetrics struct {
	steps   []int64
	metrics map[int64]core.Metrics
}

// Step pairs a step identifier with its metrics; used to build StepMetrics.
type Step struct {
	ID      int64
	Metrics core.Metrics
}

// NewStepMetrics builds a StepMetrics from steps in the given order. Step
// identifiers must be unique and non-negative.
func NewStepMetrics(steps ...Step) (*StepMetrics, error) {
	sm := &StepMetrics{
		steps:   make([]int64, 0, len(steps)),
		metrics: make(map[int64]core.Metrics, len(steps)),
	}
	for _, s := range steps {
		if s.ID < 0 {
			return nil, fmt.Errorf("step %d: identifiers must be non-negative", s.ID)
		}
		if _, dup := sm.metrics[s.ID]; dup {
			return nil, fmt.Errorf("step %d: duplicate identifier", s.ID)
		}
		sm.steps = append(sm.steps, s.ID)
		sm.metrics[s.ID] = s.Metrics.Clone()
	}
	return sm, nil
}

// Metrics always fails with core.ErrStepRequired; use StepMetrics instead.
func (s *StepMetrics) Metrics() (core.Metrics, error) {
	return nil, core.ErrStepRequired
}

// Steps returns the step identifiers in order.
func (s *StepMetrics) Steps() []int64 {
	return slices.Clone(s.steps)
}

// StepMetrics returns a copy of the metrics recorded for step.
func (s *StepMetrics) StepMetrics(step int64) (core.Metrics, error) {
	m, ok := s.metrics[step]
	if !ok {
		return nil, fmt.Errorf("%w: %d", core.ErrUnknownStep, step)
	}
	return m.Clone(), nil
}

// Len returns the number of steps.
func (s *StepMetrics) Len() int { return len(s.steps) }
