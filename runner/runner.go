package runner

import (
	"context"
	"fmt"

	"github.com/hupe1980/mlfabric/core"
)

// Split holds the training and held-out data of a supervised run.
type Split[X, Y any] struct {
	XTrain X
	YTrain Y
	XTest  X
	YTest  Y
}

// Runner drives one supervised experiment: fit, predict, evaluate and log.
// A Runner is single use and not safe for concurrent use.
type Runner[X, Y, P any] struct {
	tracker

	model     core.Model[X, Y, P]
	data      Split[X, Y]
	evaluator core.Evaluator[P, Y]

	predictions    P
	hasPredictions bool
	result         core.EvaluationResult
}

// New validates the configuration and returns an inert runner. It fails with
// core.ErrConfiguration when tracking is enabled without a backend or an
// experiment name. No backend call is made until Open.
func New[X, Y, P any](model core.Model[X, Y, P], data Split[X, Y], evaluator core.Evaluator[P, Y], optFns ...func(o *Options)) (*Runner[X, Y, P], error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", core.ErrConfiguration)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", core.ErrConfiguration)
	}
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	return &Runner[X, Y, P]{
		tracker:   newTracker(model.Name(), opts),
		model:     model,
		data:      data,
		evaluator: evaluator,
	}, nil
}

func (r *Runner[X, Y, P]) roles() []role {
	roles := []role{
		{RoleModel, r.model},
		{RoleEvaluator, r.evaluator},
	}
	if r.opts.DataLoader != nil {
		roles = append(roles, role{RoleDataLoader, r.opts.DataLoader})
	}
	if p, ok := any(r.model).(core.Processors); ok {
		if pre := p.Preprocessor(); !core.IsNil(pre) {
			roles = append(roles, role{RolePreprocessor, pre})
		}
		if post := p.Postprocessor(); !core.IsNil(post) {
			roles = append(roles, role{RolePostprocessor, post})
		}
	}
	return roles
}

// Open selects the experiment, starts a run and logs the static parameters
// of the model and every loggable collaborator. Calling Open again is a no-op.
func (r *Runner[X, Y, P]) Open(ctx context.Context) error {
	return r.open(ctx, r.model.HyperParams(), r.roles())
}

// FitModel trains the model on the training split.
func (r *Runner[X, Y, P]) FitModel(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}
	r.logger.Info("Fitting model", "model", r.model.Name())
	return r.stage(ctx, "fit", func(ctx context.Context) error {
		if err := r.model.Fit(ctx, r.data.XTrain, r.data.YTrain); err != nil {
			return err
		}
		r.state = StateFitted
		return nil
	})
}

// Predict runs the model over the held-out inputs and stores the predictions.
func (r *Runner[X, Y, P]) Predict(ctx context.Context) (P, error) {
	if err := r.Open(ctx); err != nil {
		var zero P
		return zero, err
	}
	r.logger.Info("Running predict", "model", r.model.Name())
	err := r.stage(ctx, "predict", func(ctx context.Context) error {
		preds, err := r.model.Predict(ctx, r.data.XTest)
		if err != nil {
			return err
		}
		r.predictions = preds
		r.hasPredictions = true
		r.state = StatePredicted
		return nil
	})
	return r.predictions, err
}

// Evaluate scores the predictions, computing them first when needed, and
// logs the result. A failure to log leaves the result available through
// EvaluationResult.
func (r *Runner[X, Y, P]) Evaluate(ctx context.Context) (core.EvaluationResult, error) {
	if !r.hasPredictions {
		r.logger.Info("Predictions not found, running predict first")
		if _, err := r.Predict(ctx); err != nil {
			return nil, err
		}
	}
	var result core.EvaluationResult
	err := r.stage(ctx, "evaluate", func(ctx context.Context) error {
		res, err := r.evaluator.Evaluate(r.predictions, r.data.YTest)
		if err != nil {
			return err
		}
		r.result = res
		result = res
		return r.finishEvaluation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Run fits the model, predicts and evaluates.
func (r *Runner[X, Y, P]) Run(ctx context.Context) (core.EvaluationResult, error) {
	if err := r.FitModel(ctx); err != nil {
		return nil, err
	}
	if _, err := r.Predict(ctx); err != nil {
		return nil, err
	}
	return r.Evaluate(ctx)
}

// Predictions returns the stored predictions. The boolean is false, and an
// informational note is logged, when Predict has not completed.
func (r *Runner[X, Y, P]) Predictions() (P, bool) {
	if !r.hasPredictions {
		r.notAvailable("Predictions", "call Predict or Run first")
		var zero P
		return zero, false
	}
	return r.predictions, true
}

// EvaluationResult returns the stored evaluation result. The boolean is
// false, and an informational note is logged, before Evaluate completed.
func (r *Runner[X, Y, P]) EvaluationResult() (core.EvaluationResult, bool) {
	if r.result == nil {
		r.notAvailable("Evaluation result", "run a full experiment (fit, predict and evaluate) first")
		return nil, false
	}
	return r.result, true
}
