package runner

import (
	"context"
	"fmt"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/sequence"
)

// SequenceRunner drives a sequence labeling experiment over a corpus. Before
// prediction, gold labels of a copy of the test fold are moved to
// Options.GoldLabelType and the live label is reset to Options.EmptyLabel;
// the tagger only ever sees that copy.
type SequenceRunner struct {
	tracker

	tagger    sequence.Tagger
	corpus    *sequence.Corpus
	evaluator core.Evaluator[[]sequence.Sentence, sequence.LabelFields]

	predictions    []sequence.Sentence
	hasPredictions bool
	result         core.EvaluationResult
}

// NewSequence validates the configuration and returns an inert runner.
func NewSequence(tagger sequence.Tagger, corpus *sequence.Corpus, evaluator core.Evaluator[[]sequence.Sentence, sequence.LabelFields], optFns ...func(o *Options)) (*SequenceRunner, error) {
	if tagger == nil {
		return nil, fmt.Errorf("%w: tagger is required", core.ErrConfiguration)
	}
	if corpus == nil {
		return nil, fmt.Errorf("%w: corpus is required", core.ErrConfiguration)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", core.ErrConfiguration)
	}
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	if opts.LabelType == "" || opts.GoldLabelType == "" || opts.LabelType == opts.GoldLabelType {
		return nil, fmt.Errorf("%w: label type and gold label type must be distinct and non-empty", core.ErrConfiguration)
	}
	return &SequenceRunner{
		tracker:   newTracker(tagger.Name(), opts),
		tagger:    tagger,
		corpus:    corpus,
		evaluator: evaluator,
	}, nil
}

// Open selects the experiment, starts a run and logs static parameters.
func (r *SequenceRunner) Open(ctx context.Context) error {
	roles := []role{
		{RoleModel, r.tagger},
		{RoleEvaluator, r.evaluator},
	}
	if r.opts.DataLoader != nil {
		roles = append(roles, role{RoleDataLoader, r.opts.DataLoader})
	}
	return r.open(ctx, r.tagger.HyperParams(), roles)
}

// FitModel trains the tagger on the corpus.
func (r *SequenceRunner) FitModel(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}
	r.logger.Info("Fitting model", "model", r.tagger.Name())
	return r.stage(ctx, "fit", func(ctx context.Context) error {
		if err := r.tagger.Fit(ctx, r.corpus); err != nil {
			return err
		}
		r.state = StateFitted
		return nil
	})
}

// Predict tags a label-isolated copy of the test fold.
func (r *SequenceRunner) Predict(ctx context.Context) ([]sequence.Sentence, error) {
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("Running predict", "model", r.tagger.Name())
	err := r.stage(ctx, "predict", func(ctx context.Context) error {
		isolated := sequence.Clone(r.corpus.Test)
		sequence.RelocateLabels(isolated, r.opts.LabelType, r.opts.GoldLabelType, r.opts.EmptyLabel)

		preds, err := r.tagger.Predict(ctx, isolated)
		if err != nil {
			return err
		}
		r.predictions = preds
		r.hasPredictions = true
		r.state = StatePredicted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.predictions, nil
}

// Evaluate scores the predictions against the relocated gold labels,
// predicting first when needed, and logs the result step by step for
// step indexed results.
func (r *SequenceRunner) Evaluate(ctx context.Context) (core.EvaluationResult, error) {
	if !r.hasPredictions {
		r.logger.Info("Predictions not found, running predict first")
		if _, err := r.Predict(ctx); err != nil {
			return nil, err
		}
	}
	fields := sequence.LabelFields{Predicted: r.opts.LabelType, Gold: r.opts.GoldLabelType}
	var result core.EvaluationResult
	err := r.stage(ctx, "evaluate", func(ctx context.Context) error {
		res, err := r.evaluator.Evaluate(r.predictions, fields)
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

// Run fits, predicts and evaluates.
func (r *SequenceRunner) Run(ctx context.Context) (core.EvaluationResult, error) {
	if err := r.FitModel(ctx); err != nil {
		return nil, err
	}
	if _, err := r.Predict(ctx); err != nil {
		return nil, err
	}
	return r.Evaluate(ctx)
}

// Predictions returns the tagged test sentences, or false before Predict.
func (r *SequenceRunner) Predictions() ([]sequence.Sentence, bool) {
	if !r.hasPredictions {
		r.notAvailable("Predictions", "call Predict or Run first")
		return nil, false
	}
	return r.predictions, true
}

// EvaluationResult returns the stored result, or false before Evaluate.
func (r *SequenceRunner) EvaluationResult() (core.EvaluationResult, bool) {
	if r.result == nil {
		r.notAvailable("Evaluation result", "run a full experiment (fit, predict and evaluate) first")
		return nil, false
	}
	return r.result, true
}
