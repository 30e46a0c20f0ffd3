package runner

import (
	"context"
	"time"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("mlfabric/runner")

// Role names logged for loggable collaborators.
const (
	RoleModel         = "Model"
	RoleEvaluator     = "Evaluator"
	RoleDataLoader    = "DataLoader"
	RolePreprocessor  = "Preprocessor"
	RolePostprocessor = "Postprocessor"
)

// Identity params logged once per run.
const (
	ParamModelName      = "model_name"
	ParamDatasetName    = "dataset_name"
	ParamDatasetVersion = "dataset_version"
)

type role struct {
	name  string
	value any
}

type stageLogger interface {
	LogStage(stage string, dur time.Duration, success bool, err error)
}

type metricsLogger interface {
	LogMetrics(stage string, metrics map[string]float64)
}

// tracker holds the lifecycle and backend plumbing shared by both runners.
type tracker struct {
	opts      Options
	logger    logging.Logger
	modelName string
	state     State
	opened    bool
	runOpen   bool
	runID     string
}

func newTracker(modelName string, opts Options) tracker {
	return tracker{
		opts:      opts,
		logger:    opts.Logger,
		modelName: modelName,
		state:     StateCreated,
	}
}

// State returns the current lifecycle state.
func (t *tracker) State() State { return t.state }

func (t *tracker) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "runner."+name,
		trace.WithAttributes(
			attribute.String("mlfabric.model", t.modelName),
			attribute.String("mlfabric.experiment", t.opts.ExperimentName),
			attribute.Bool("mlfabric.tracking", t.opts.LogExperiment),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if sl, ok := t.logger.(stageLogger); ok {
		sl.LogStage(name, time.Since(start), err == nil, err)
	} else if err != nil {
		t.logger.Error("Stage failed", "stage", name, "error", err)
	}
	return err
}

func (t *tracker) open(ctx context.Context, hyper core.Params, roles []role) error {
	if t.opened {
		return nil
	}
	return t.stage(ctx, "open", func(ctx context.Context) error {
		t.logger.Info("Starting experiment", "experiment", t.opts.ExperimentName, "model", t.modelName)
		if !t.opts.LogExperiment {
			t.opened = true
			return nil
		}

		exp := t.opts.Experiment
		t.logger.Info("Connecting to experimentation backend", "backend", exp.Name())
		if err := exp.SetExperiment(ctx, t.opts.ExperimentName, t.opts.ArtifactLocation); err != nil {
			return err
		}
		if err := exp.StartRun(ctx); err != nil {
			return err
		}
		t.runOpen = true
		if rt, ok := exp.(core.RunTracker); ok {
			t.runID = rt.ActiveRunID()
		}

		if len(hyper) > 0 {
			if err := exp.LogParams(ctx, hyper); err != nil {
				return err
			}
		}
		for _, r := range roles {
			if err := t.logLoggable(ctx, r); err != nil {
				return err
			}
		}
		if len(t.opts.Params) > 0 {
			t.logger.Info("Logging additional experiment params", "count", len(t.opts.Params))
			if err := exp.LogParams(ctx, t.opts.Params.Clone()); err != nil {
				return err
			}
		}
		for _, p := range []struct{ key, value string }{
			{ParamModelName, t.modelName},
			{ParamDatasetName, t.opts.DatasetName},
			{ParamDatasetVersion, t.opts.DatasetVersion},
		} {
			if err := exp.LogParam(ctx, p.key, p.value); err != nil {
				return err
			}
		}

		t.state = StateRunOpen
		t.opened = true
		return nil
	})
}

// logLoggable logs params, then metrics, then the role name of a loggable
// collaborator. Values without the capability are skipped.
func (t *tracker) logLoggable(ctx context.Context, r role) error {
	l, ok := core.AsLoggable(r.value)
	if !ok {
		return nil
	}
	snap := core.TakeSnapshot(l)
	exp := t.opts.Experiment
	if err := exp.LogParams(ctx, snap.Params); err != nil {
		return err
	}
	if err := exp.LogMetrics(ctx, snap.Metrics, core.NoStep); err != nil {
		return err
	}
	return exp.LogParam(ctx, r.name, snap.Name)
}

// logResult logs step results one step at a time in step order and hands
// scalar results to LogEvaluationResult.
func (t *tracker) logResult(ctx context.Context, result core.EvaluationResult) error {
	exp := t.opts.Experiment
	if sr, ok := result.(core.StepResult); ok {
		for _, step := range sr.Steps() {
			m, err := sr.StepMetrics(step)
			if err != nil {
				return err
			}
			if err := exp.LogMetrics(ctx, m, step); err != nil {
				return err
			}
		}
		return nil
	}
	return exp.LogEvaluationResult(ctx, result)
}

func (t *tracker) finishEvaluation(ctx context.Context, result core.EvaluationResult) error {
	t.state = StateEvaluated
	if ml, ok := t.logger.(metricsLogger); ok {
		if m, err := result.Metrics(); err == nil {
			ml.LogMetrics("evaluate", m)
		}
	}
	if !t.opts.LogExperiment {
		return nil
	}
	if err := t.logResult(ctx, result); err != nil {
		return err
	}
	t.state = StateLogged
	return nil
}

// Close ends the backend run opened by this runner. It is safe to call more
// than once and a no-op when tracking is disabled. When the backend reports
// run ids and another run has replaced ours, the backend is left untouched.
func (t *tracker) Close(ctx context.Context) error {
	if !t.runOpen {
		return nil
	}
	t.runOpen = false
	if rt, ok := t.opts.Experiment.(core.RunTracker); ok && t.runID != "" {
		if active := rt.ActiveRunID(); active != t.runID {
			t.logger.Info("Run already ended, skipping end_run", "run_id", t.runID, "active_run_id", active)
			return nil
		}
	}
	return t.opts.Experiment.EndRun(ctx)
}

func (t *tracker) notAvailable(what, hint string) {
	t.logger.Info(what+" not available yet", "hint", hint, "state", t.state.String())
}
