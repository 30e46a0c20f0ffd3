// Package evaluation contains concrete implementations of the core
// evaluation contracts: a scalar Result, a step indexed StepMetrics result,
// an EvaluatorFunc adapter and a classification evaluator.
//
// StepMetrics deliberately refuses to reduce itself to a single mapping:
// Metrics() returns core.ErrStepRequired and callers log each step on its own.
package evaluation
