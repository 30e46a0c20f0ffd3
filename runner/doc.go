// Package runner implements the experiment lifecycle controllers.
//
// A Runner composes a model, a train/test split, an evaluator and an
// optional experimentation backend into one repeatable run:
//
//	r, err := runner.New(model, split, evaluator, func(o *runner.Options) {
//		o.Experiment = backend
//		o.ExperimentName = "sentiment"
//	})
//	if err != nil { ... }            // ErrConfiguration, no I/O happened
//	if err := r.Open(ctx); err != nil { ... } // set experiment, start run, log params
//	defer r.Close(ctx)
//	result, err := r.Run(ctx)        // fit, predict, evaluate, log
//
// Construction is inert; Open performs the backend calls. Stage methods open
// the run lazily when Open was not called. SequenceRunner is the variant for
// token tagging corpora and isolates gold labels before prediction.
//
// Each stage is wrapped in an OpenTelemetry span from the "mlfabric/runner"
// tracer. Errors returned by the model are passed through unchanged.
package runner
