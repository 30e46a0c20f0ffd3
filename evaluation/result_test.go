package evaluation

import (
	"testing"

	"github.com/hupe1980/mlfabric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ core.EvaluationResult              = (*Result)(nil)
	_ core.StepResult                    = (*StepMetrics)(nil)
	_ core.Evaluator[[]string, []string] = (*Classification[string])(nil)
	_ core.Loggable                      = (*Classification[string])(nil)
	_ core.Evaluator[[]int, []int]       = EvaluatorFunc[[]int, []int](nil)
)

func TestResult_IsImmutable(t *testing.T) {
	src := core.Metrics{"precision": 0.5}
	r := NewResult(src)
	src["precision"] = 1

	m, err := r.Metrics()
	require.NoError(t, err)
	m["precision"] = 2

	v, ok := r.Get("precision")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, "precision: 0.5", r.String())
}

func TestStepMetrics_OrderAndLookup(t *testing.T) {
	sm, err := NewStepMetrics(
		Step{ID: 3, Metrics: core.Metrics{"f1": 0.3}},
		Step{ID: 1, Metrics: core.Metrics{"f1": 0.1}},
		Step{ID: 2, Metrics: core.Metrics{"f1": 0.2}},
	)
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 1, 2}, sm.Steps())
	assert.Equal(t, 3, sm.Len())

	m, err := sm.StepMetrics(1)
	require.NoError(t, err)
	assert.Equal(t, core.Metrics{"f1": 0.1}, m)

	_, err = sm.StepMetrics(7)
	assert.ErrorIs(t, err, core.ErrUnknownStep)
}

func TestStepMetrics_MetricsWithoutStep(t *testing.T) {
	sm, err := NewStepMetrics(Step{ID: 0, Metrics: core.Metrics{"loss": 1}})
	require.NoError(t, err)

	_, err = sm.Metrics()
	assert.ErrorIs(t, err, core.ErrStepRequired)
}

func TestNewStepMetrics_Validation(t *testing.T) {
	_, err := NewStepMetrics(Step{ID: 1}, Step{ID: 1})
	assert.Error(t, err)

	_, err = NewStepMetrics(Step{ID: -2})
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	ev := Static[[]bool, []int](core.Metrics{"precision": 0.5, "recall": 0.7})

	r, err := ev.Evaluate(nil, nil)
	require.NoError(t, err)
	m, err := r.Metrics()
	require.NoError(t, err)
	assert.Equal(t, core.Metrics{"precision": 0.5, "recall": 0.7}, m)
}
