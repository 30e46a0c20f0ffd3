package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/internal/util"
	"github.com/hupe1980/mlfabric/processing"
)

var (
	// ErrNotFitted is returned by Predict before Fit.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrUnmappedAnswer is returned when a completion matches no label and
	// no fallback label is configured.
	ErrUnmappedAnswer = errors.New("answer does not match any label")
)

const (
	defaultInstruction = "Classify the text provided by the user."
	// DefaultSystemTemplate renders the system prompt from the instruction and
	// the fitted label vocabulary.
	DefaultSystemTemplate = `{{.instruction}} Answer with exactly one of: {{join ", " .labels}}.`
)

// PromptClassifierOptions configures a PromptClassifier.
type PromptClassifierOptions struct {
	// Name defaults to "PromptClassifier".
	Name string
	// Instruction opens the system prompt.
	Instruction string
	// SystemTemplate is a text/template with the keys instruction, labels
	// and name. Defaults to DefaultSystemTemplate.
	SystemTemplate string
	// MaxCalls caps completer calls over the model's lifetime; 0 is unlimited.
	MaxCalls int
	// Shots is the maximum number of few-shot examples kept by Fit.
	Shots       int
	Temperature float64
	MaxTokens   int64
	// Fallback is predicted when an answer matches no label. When empty such
	// answers fail with ErrUnmappedAnswer.
	Fallback      string
	Preprocessor  processing.Processor[string]
	Postprocessor processing.Processor[string]
}

type example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// PromptClassifier classifies texts by prompting a language model. It
// implements core.Model[[]string, []string, []string].
type PromptClassifier struct {
	Base
	completer Completer
	opts      PromptClassifierOptions
	budget    *CallBudget

	labels   []string
	examples []example
	system   string
}

var (
	_ core.Model[[]string, []string, []string] = (*PromptClassifier)(nil)
	_ core.Processors                          = (*PromptClassifier)(nil)
	_ core.Loggable                            = (*PromptClassifier)(nil)
)

// NewPromptClassifier creates a classifier backed by completer.
func NewPromptClassifier(completer Completer, optFns ...func(o *PromptClassifierOptions)) *PromptClassifier {
	opts := PromptClassifierOptions{
		Name:           "PromptClassifier",
		Instruction:    defaultInstruction,
		SystemTemplate: DefaultSystemTemplate,
		Shots:          4,
		Temperature:    0,
		MaxTokens:      16,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	info := completer.Info()
	hyper := core.Params{
		"provider":    info.Provider,
		"model":       info.Name,
		"temperature": opts.Temperature,
		"shots":       opts.Shots,
	}
	if opts.Fallback != "" {
		hyper["fallback"] = opts.Fallback
	}

	return &PromptClassifier{
		Base: NewBase(opts.Name, hyper, func(o *BaseOptions) {
			o.Preprocessor = opts.Preprocessor
			o.Postprocessor = opts.Postprocessor
		}),
		completer: completer,
		opts:      opts,
		budget:    NewCallBudget(opts.MaxCalls),
	}
}

// Params implements core.Loggable.
func (c *PromptClassifier) Params() core.Params {
	return core.Params{"max_tokens": c.opts.MaxTokens, "max_calls": c.opts.MaxCalls}
}

// Metrics implements core.Loggable; nil until fitted.
func (c *PromptClassifier) Metrics() core.Metrics {
	if c.labels == nil {
		return nil
	}
	m := core.Metrics{
		"labels":           float64(len(c.labels)),
		"examples":         float64(len(c.examples)),
		"completion_calls": float64(c.budget.Count()),
	}
	if remaining := c.budget.Remaining(); remaining >= 0 {
		m["remaining_calls"] = float64(remaining)
	}
	return m
}

// SystemPrompt returns the rendered system prompt; empty until fitted.
func (c *PromptClassifier) SystemPrompt() string { return c.system }

func (c *PromptClassifier) setState(labels []string, examples []example) error {
	system, err := util.RenderTemplate(c.opts.SystemTemplate, map[string]any{
		"instruction": c.opts.Instruction,
		"labels":      labels,
		"name":        c.Name(),
	})
	if err != nil {
		return fmt.Errorf("render system prompt: %w", err)
	}
	c.labels = labels
	c.examples = examples
	c.system = system
	return nil
}

// Labels returns the learned label vocabulary in sorted order.
func (c *PromptClassifier) Labels() []string { return slices.Clone(c.labels) }

// Fit learns the label vocabulary and picks up to Shots examples, cycling
// through the labels so each one is represented.
func (c *PromptClassifier) Fit(ctx context.Context, texts []string, labels []string) error {
	if len(texts) != len(labels) {
		return fmt.Errorf("fit: %d texts but %d labels", len(texts), len(labels))
	}
	if len(texts) == 0 {
		return errors.New("fit: empty training set")
	}
	if c.opts.Preprocessor != nil {
		var err error
		if texts, err = c.opts.Preprocessor.ApplyBatch(ctx, texts); err != nil {
			return err
		}
	}

	byLabel := make(map[string][]string)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], texts[i])
	}
	vocab := make([]string, 0, len(byLabel))
	for l := range byLabel {
		vocab = append(vocab, l)
	}
	slices.Sort(vocab)

	var examples []example
	for round := 0; len(examples) < c.opts.Shots; round++ {
		added := false
		for _, l := range vocab {
			if len(examples) == c.opts.Shots {
				break
			}
			if round < len(byLabel[l]) {
				examples = append(examples, example{Text: byLabel[l][round], Label: l})
				added = true
			}
		}
		if !added {
			break
		}
	}

	return c.setState(vocab, examples)
}

// Predict classifies every text. Completer failures abort the batch.
func (c *PromptClassifier) Predict(ctx context.Context, texts []string) ([]string, error) {
	if c.labels == nil {
		return nil, ErrNotFitted
	}
	if c.opts.Preprocessor != nil {
		var err error
		if texts, err = c.opts.Preprocessor.ApplyBatch(ctx, texts); err != nil {
			return nil, err
		}
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		if err := c.budget.Increment(); err != nil {
			return nil, fmt.Errorf("predict item %d: %w", i, err)
		}
		answer, err := c.completer.Complete(ctx, c.request(text))
		if err != nil {
			return nil, fmt.Errorf("predict item %d: %w", i, err)
		}
		label, ok := c.match(answer)
		if !ok {
			if c.opts.Fallback == "" {
				return nil, fmt.Errorf("predict item %d: %w: %q", i, ErrUnmappedAnswer, answer)
			}
			label = c.opts.Fallback
		}
		out[i] = label
	}

	if c.opts.Postprocessor != nil {
		return c.opts.Postprocessor.ApplyBatch(ctx, out)
	}
	return out, nil
}

func (c *PromptClassifier) request(text string) CompletionRequest {
	msgs := make([]Message, 0, 2*len(c.examples)+1)
	for _, ex := range c.examples {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: ex.Text},
			Message{Role: RoleAssistant, Content: ex.Label},
		)
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: text})
	return CompletionRequest{
		System:      c.system,
		Messages:    msgs,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
}

// match maps an answer onto the label vocabulary: exact match, then case
// insensitive match, then the longest label contained in the answer.
func (c *PromptClassifier) match(answer string) (string, bool) {
	a := strings.Trim(strings.TrimSpace(answer), `."'`)
	if slices.Contains(c.labels, a) {
		return a, true
	}
	for _, l := range c.labels {
		if strings.EqualFold(l, a) {
			return l, true
		}
	}
	lower := strings.ToLower(a)
	best := ""
	for _, l := range c.labels {
		if strings.Contains(lower, strings.ToLower(l)) && len(l) > len(best) {
			best = l
		}
	}
	return best, best != ""
}

type classifierState struct {
	Labels   []string  `json:"labels"`
	Examples []example `json:"examples"`
}

// SaveState writes the fitted state as JSON.
func (c *PromptClassifier) SaveState(w io.Writer) error {
	if c.labels == nil {
		return ErrNotFitted
	}
	return json.NewEncoder(w).Encode(classifierState{Labels: c.labels, Examples: c.examples})
}

// LoadState restores a state written by SaveState.
func (c *PromptClassifier) LoadState(r io.Reader) error {
	var st classifierState
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if len(st.Labels) == 0 {
		return errors.New("load state: no labels")
	}
	slices.Sort(st.Labels)
	return c.setState(st.Labels, st.Examples)
}
