package core

// NoStep tags a metric as a single, final value rather than one entry of a
// step indexed series.
const NoStep int64 = -1

// EvaluationResult holds the evaluation output of one model run (precision,
// recall, accuracy, ...). Metrics must reduce the result to a flat numeric
// mapping; results that cannot do so return an error.
type EvaluationResult interface {
	Metrics() (Metrics, error)
}

// StepResult is the capability of a result keyed by ordered step identifiers
// (epochs, folds, ...). Steps returns the identifiers in logging order; each
// identifier is unique and non-negative.
type StepResult interface {
	EvaluationResult
	Steps() []int64
	StepMetrics(step int64) (Metrics, error)
}

// Evaluator turns predictions (and optional ground truth) into an
// EvaluationResult. Implementations must be pure: no logging, no side effects
// and identical output for identical input.
type Evaluator[P, Y any] interface {
	Evaluate(predictions P, groundTruth Y) (EvaluationResult, error)
}
