package sequence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/evaluation"
)

var (
	// ErrNoTokens is returned when there is nothing to evaluate.
	ErrNoTokens = errors.New("no tokens to evaluate")
	// ErrMissingGold is returned when a token has no gold label.
	ErrMissingGold = errors.New("token without gold label")
)

// LabelFields names the tag types an Evaluator compares: the predictions
// written by the model and the relocated gold labels.
type LabelFields struct {
	Predicted string
	Gold      string
}

// DefaultLabelFields compares LabelType against GoldLabelType.
func DefaultLabelFields() LabelFields {
	return LabelFields{Predicted: LabelType, Gold: GoldLabelType}
}

// EvaluatorOptions configures an Evaluator.
type EvaluatorOptions struct {
	// BatchSize, when positive, turns the result into step metrics with one
	// step per batch of sentences (step ids 0, 1, ...).
	BatchSize int
}

// Evaluator scores tagged sentences with token accuracy and entity level
// precision, recall and F1 (exact span and type match over IOB chunks).
type Evaluator struct {
	opts EvaluatorOptions
}

var (
	_ core.Evaluator[[]Sentence, LabelFields] = (*Evaluator)(nil)
	_ core.Loggable                           = (*Evaluator)(nil)
)

// NewEvaluator creates a sequence labeling evaluator.
func NewEvaluator(optFns ...func(o *EvaluatorOptions)) *Evaluator {
	var opts EvaluatorOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Evaluator{opts: opts}
}

// Name implements core.Named.
func (e *Evaluator) Name() string { return "SequenceEvaluator" }

// Params implements core.Loggable.
func (e *Evaluator) Params() core.Params {
	return core.Params{"scheme": "IOB", "batch_size": e.opts.BatchSize}
}

// Metrics implements core.Loggable.
func (e *Evaluator) Metrics() core.Metrics { return nil }

// Evaluate implements core.Evaluator. Gold labels are read exclusively from
// fields.Gold.
func (e *Evaluator) Evaluate(predictions []Sentence, fields LabelFields) (core.EvaluationResult, error) {
	if fields.Predicted == "" {
		fields.Predicted = LabelType
	}
	if fields.Gold == "" {
		fields.Gold = GoldLabelType
	}

	if e.opts.BatchSize <= 0 {
		m, err := score(predictions, fields)
		if err != nil {
			return nil, err
		}
		return evaluation.NewResult(m), nil
	}

	var steps []evaluation.Step
	for start, id := 0, int64(0); start < len(predictions); start, id = start+e.opts.BatchSize, id+1 {
		end := min(start+e.opts.BatchSize, len(predictions))
		m, err := score(predictions[start:end], fields)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", id, err)
		}
		steps = append(steps, evaluation.Step{ID: id, Metrics: m})
	}
	if len(steps) == 0 {
		return nil, ErrNoTokens
	}
	sm, err := evaluation.NewStepMetrics(steps...)
	if err != nil {
		return nil, err
	}
	return sm, nil
}

type counts struct {
	tokens, correct  int
	tp, nPred, nGold int
}

func score(sentences []Sentence, fields LabelFields) (core.Metrics, error) {
	var c counts
	for i, s := range sentences {
		gold := make([]string, len(s))
		pred := make([]string, len(s))
		for j, tok := range s {
			g, ok := tok.Tags[fields.Gold]
			if !ok {
				return nil, fmt.Errorf("%w: sentence %d token %d (%q)", ErrMissingGold, i, j, tok.Text)
			}
			gold[j] = g
			pred[j] = tok.Tag(fields.Predicted)
			if pred[j] == "" {
				pred[j] = EmptyLabel
			}
			c.tokens++
			if gold[j] == pred[j] {
				c.correct++
			}
		}

		goldChunks := Chunks(gold)
		predChunks := Chunks(pred)
		c.nGold += len(goldChunks)
		c.nPred += len(predChunks)
		set := make(map[Chunk]struct{}, len(goldChunks))
		for _, ch := range goldChunks {
			set[ch] = struct{}{}
		}
		for _, ch := range predChunks {
			if _, ok := set[ch]; ok {
				c.tp++
			}
		}
	}
	if c.tokens == 0 {
		return nil, ErrNoTokens
	}

	precision := ratio(c.tp, c.nPred)
	recall := ratio(c.tp, c.nGold)
	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return core.Metrics{
		"accuracy":  ratio(c.correct, c.tokens),
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Chunk is a typed entity span [Start, End) over token positions.
type Chunk struct {
	Type  string
	Start int
	End   int
}

// Chunks extracts entity spans from IOB or IOB2 tags. An I- tag whose type
// differs from the open chunk starts a new chunk.
func Chunks(tags []string) []Chunk {
	var (
		out  []Chunk
		open *Chunk
	)
	closeOpen := func(end int) {
		if open != nil {
			open.End = end
			out = append(out, *open)
			open = nil
		}
	}
	for i, tag := range tags {
		prefix, typ := splitTag(tag)
		switch prefix {
		case "B":
			closeOpen(i)
			open = &Chunk{Type: typ, Start: i}
		case "I":
			if open == nil || open.Type != typ {
				closeOpen(i)
				open = &Chunk{Type: typ, Start: i}
			}
		default:
			closeOpen(i)
		}
	}
	closeOpen(len(tags))
	return out
}

func splitTag(tag string) (prefix, typ string) {
	if tag == "" || tag == EmptyLabel {
		return "O", ""
	}
	p, t, ok := strings.Cut(tag, "-")
	if !ok {
		return "I", tag
	}
	return p, t
}
