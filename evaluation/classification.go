package evaluation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/mlfabric/core"
)

var (
	// ErrGroundTruthRequired is returned when an evaluator needs labels but none were supplied.
	ErrGroundTruthRequired = errors.New("ground truth required")
	// ErrLengthMismatch is returned when predictions and ground truth differ in length.
	ErrLengthMismatch = errors.New("predictions and ground truth differ in length")
)

// Classification evaluates single-label predictions against ground truth. It
// reports accuracy and macro averaged precision, recall and F1 over the union
// of predicted and gold labels. Undefined ratios (no predicted or no gold
// instance of a label) count as zero.
type Classification[L cmp.Ordered] struct{}

// NewClassification returns a classification evaluator.
func NewClassification[L cmp.Ordered]() *Classification[L] {
	return &Classification[L]{}
}

// Name implements core.Loggable.
func (c *Classification[L]) Name() string { return "ClassificationEvaluator" }

// Params implements core.Loggable.
func (c *Classification[L]) Params() core.Params { return core.Params{"average": "macro"} }

// Metrics implements core.Loggable; the evaluator has no metrics of its own.
func (c *Classification[L]) Metrics() core.Metrics { return nil }

// Evaluate computes the classification metrics.
func (c *Classification[L]) Evaluate(predicted, actual []L) (core.EvaluationResult, error) {
	if len(actual) == 0 {
		return nil, ErrGroundTruthRequired
	}
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("%w: %d predictions, %d labels", ErrLengthMismatch, len(predicted), len(actual))
	}

	type counts struct{ tp, fp, fn int }
	perLabel := map[L]*counts{}
	get := func(l L) *counts {
		c, ok := perLabel[l]
		if !ok {
			c = &counts{}
			perLabel[l] = c
		}
		return c
	}

	correct := 0
	for i := range actual {
		p, a := predicted[i], actual[i]
		if p == a {
			correct++
			get(a).tp++
			continue
		}
		get(p).fp++
		get(a).fn++
	}

	labels := make([]L, 0, len(perLabel))
	for l := range perLabel {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	var precision, recall, f1 float64
	for _, l := range labels {
		c := perLabel[l]
		p := ratio(c.tp, c.tp+c.fp)
		r := ratio(c.tp, c.tp+c.fn)
		precision += p
		recall += r
		if p+r > 0 {
			f1 += 2 * p * r / (p + r)
		}
	}
	n := float64(len(labels))

	return NewResult(core.Metrics{
		"accuracy":  ratio(correct, len(actual)),
		"precision": precision / n,
		"recall":    recall / n,
		"f1":        f1 / n,
	}), nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
