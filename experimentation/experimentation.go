package experimentation

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/mlfabric/core"
)

// Operation names used in *core.BackendError and call records.
const (
	OpSetExperiment       = "set_experiment"
	OpStartRun            = "start_run"
	OpEndRun              = "end_run"
	OpLogParam            = "log_param"
	OpLogParams           = "log_params"
	OpLogMetric           = "log_metric"
	OpLogMetrics          = "log_metrics"
	OpLogImage            = "log_image"
	OpLogEvaluationResult = "log_evaluation_result"
)

// DefaultExperiment is used when StartRun is called before SetExperiment.
const DefaultExperiment = "Default"

// ErrNoActiveRun is returned when a value is logged while no run is open.
var ErrNoActiveRun = errors.New("no active run")

// RunStatus mirrors the lifecycle of a tracked run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
)

// LogEvaluationResult extracts the result's flat metric mapping and forwards
// it to e.LogMetrics as a single final value. Results that cannot be reduced
// (e.g. step indexed results) fail with a *core.BackendError wrapping both
// core.ErrNotReduced and the underlying failure.
func LogEvaluationResult(ctx context.Context, e core.Experimentation, result core.EvaluationResult) error {
	if result == nil {
		return core.NewBackendError(e.Name(), OpLogEvaluationResult, fmt.Errorf("%w: nil result", core.ErrNotReduced))
	}
	metrics, err := result.Metrics()
	if err != nil {
		return core.NewBackendError(e.Name(), OpLogEvaluationResult, fmt.Errorf(
			"%w: reading %T as metrics failed: %w; log step indexed results one step at a time "+
				"with LogMetrics(ctx, metrics, step), or make Metrics() return a flat mapping",
			core.ErrNotReduced, result, err))
	}
	return e.LogMetrics(ctx, metrics, core.NoStep)
}
