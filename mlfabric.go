// Package mlfabric provides a high-level façade over the experiment runners
// and tracking backends. Most applications interact with this package by:
//  1. Loading a config.Config (YAML) and creating a Fabric via New
//  2. Executing supervised runs (Run) or sequence labeling runs (RunSequence)
//  3. Closing the Fabric to release the tracking backend
//
// The façade opens the backend selected by the configuration, maps the
// configuration onto runner options and takes care of opening and closing
// each run.
package mlfabric

import (
	"context"
	"errors"

	"github.com/hupe1980/mlfabric/config"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
	"github.com/hupe1980/mlfabric/runner"
	"github.com/hupe1980/mlfabric/sequence"
)

// Options configures a Fabric.
type Options struct {
	// Tracker overrides the backend selected by the configuration. The
	// caller keeps ownership of it.
	Tracker core.Experimentation
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Fabric aggregates a configuration, its tracking backend and a logger.
type Fabric struct {
	cfg     *config.Config
	tracker core.Experimentation
	closer  func() error
	logger  logging.Logger
}

// New creates a Fabric for cfg. A nil cfg uses config.Default with tracking
// disabled.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Fabric, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if cfg == nil {
		def := config.Default()
		def.LogExperiment = false
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Fabric{cfg: cfg, logger: opts.Logger}
	switch {
	case opts.Tracker != nil:
		f.tracker = opts.Tracker
	case cfg.LogExperiment:
		tr, err := cfg.OpenTracker(opts.Logger)
		if err != nil {
			return nil, err
		}
		f.tracker = tr
		f.closer = tr.Close
	}
	return f, nil
}

// Config returns the configuration.
func (f *Fabric) Config() *config.Config { return f.cfg }

// Tracker returns the tracking backend or nil when tracking is disabled.
func (f *Fabric) Tracker() core.Experimentation { return f.tracker }

// Close releases the tracking backend opened by New.
func (f *Fabric) Close() error {
	if f.closer == nil {
		return nil
	}
	closer := f.closer
	f.closer = nil
	return closer()
}

// RunnerOptions maps the configuration onto runner options.
func (f *Fabric) RunnerOptions() func(o *runner.Options) {
	return func(o *runner.Options) {
		o.LogExperiment = f.cfg.LogExperiment
		o.Experiment = f.tracker
		o.ExperimentName = f.cfg.ExperimentName
		o.ArtifactLocation = f.cfg.ArtifactLocation
		o.DatasetName = f.cfg.Dataset.Name
		o.DatasetVersion = f.cfg.Dataset.Version
		o.Params = core.Params(f.cfg.Params).Clone()
		o.Logger = f.logger
	}
}

// Run executes one supervised experiment: open the run, fit, predict,
// evaluate and log, then end the run. optFns are applied after the
// configuration.
func Run[X, Y, P any](ctx context.Context, f *Fabric, model core.Model[X, Y, P], data runner.Split[X, Y], evaluator core.Evaluator[P, Y], optFns ...func(o *runner.Options)) (core.EvaluationResult, error) {
	r, err := runner.New(model, data, evaluator, append([]func(o *runner.Options){f.RunnerOptions()}, optFns...)...)
	if err != nil {
		return nil, err
	}
	return execute(ctx, r)
}

// RunSequence executes one sequence labeling experiment.
func RunSequence(ctx context.Context, f *Fabric, tagger sequence.Tagger, corpus *sequence.Corpus, evaluator core.Evaluator[[]sequence.Sentence, sequence.LabelFields], optFns ...func(o *runner.Options)) (core.EvaluationResult, error) {
	r, err := runner.NewSequence(tagger, corpus, evaluator, append([]func(o *runner.Options){f.RunnerOptions()}, optFns...)...)
	if err != nil {
		return nil, err
	}
	return execute(ctx, r)
}

type lifecycle interface {
	Open(ctx context.Context) error
	Run(ctx context.Context) (core.EvaluationResult, error)
	Close(ctx context.Context) error
}

func execute(ctx context.Context, r lifecycle) (result core.EvaluationResult, err error) {
	defer func() {
		err = errors.Join(err, r.Close(ctx))
	}()
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	return r.Run(ctx)
}
