package model

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/processing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trainTexts  = []string{"great movie", "awful plot", "loved it", "boring", "superb"}
	trainLabels = []string{"positive", "negative", "positive", "negative", "positive"}
)

func fitted(t *testing.T, c Completer, optFns ...func(o *PromptClassifierOptions)) *PromptClassifier {
	t.Helper()
	clf := NewPromptClassifier(c, optFns...)
	require.NoError(t, clf.Fit(context.Background(), trainTexts, trainLabels))
	return clf
}

func TestPromptClassifier_Fit(t *testing.T) {
	clf := fitted(t, NewMockCompleter("mock-1"), func(o *PromptClassifierOptions) { o.Shots = 3 })

	assert.Equal(t, []string{"negative", "positive"}, clf.Labels())
	assert.Equal(t, []example{
		{Text: "awful plot", Label: "negative"},
		{Text: "great movie", Label: "positive"},
		{Text: "boring", Label: "negative"},
	}, clf.examples)
	assert.Equal(t, core.Metrics{"labels": 2, "examples": 3, "completion_calls": 0}, clf.Metrics())
	assert.Equal(t, "Classify the text provided by the user. Answer with exactly one of: negative, positive.", clf.SystemPrompt())
}

func TestPromptClassifier_SystemTemplate(t *testing.T) {
	mock := NewMockCompleter("m")
	mock.AddResponse("x", "positive")
	clf := fitted(t, mock, func(o *PromptClassifierOptions) {
		o.Name = "sentiment"
		o.SystemTemplate = `{{.name}}: {{join "|" .labels | upper}}`
	})
	assert.Equal(t, "sentiment: NEGATIVE|POSITIVE", clf.SystemPrompt())

	_, err := clf.Predict(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "sentiment: NEGATIVE|POSITIVE", mock.Requests()[0].System)

	bad := NewPromptClassifier(mock, func(o *PromptClassifierOptions) { o.SystemTemplate = "{{.nope}}" })
	assert.Error(t, bad.Fit(context.Background(), trainTexts, trainLabels))
	assert.Nil(t, bad.Labels())
}

func TestPromptClassifier_MaxCalls(t *testing.T) {
	mock := NewMockCompleter("m")
	mock.AddResponse("a", "positive")
	clf := fitted(t, mock, func(o *PromptClassifierOptions) { o.MaxCalls = 2 })

	assert.Equal(t, float64(2), clf.Metrics()["remaining_calls"])
	_, err := clf.Predict(context.Background(), []string{"a", "a"})
	require.NoError(t, err)

	_, err = clf.Predict(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Len(t, mock.Requests(), 2)
	assert.Equal(t, float64(2), clf.Metrics()["completion_calls"])
	assert.Equal(t, float64(0), clf.Metrics()["remaining_calls"])
	assert.Equal(t, 2, clf.Params()["max_calls"])
}

func TestPromptClassifier_FitErrors(t *testing.T) {
	clf := NewPromptClassifier(NewMockCompleter("m"))
	assert.Error(t, clf.Fit(context.Background(), []string{"a"}, nil))
	assert.Error(t, clf.Fit(context.Background(), nil, nil))

	_, err := clf.Predict(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.Nil(t, clf.Metrics())
}

func TestPromptClassifier_PredictMapping(t *testing.T) {
	mock := NewMockCompleter("mock-1")
	mock.AddResponse("exact", "positive")
	mock.AddResponse("case", "NEGATIVE.")
	mock.AddResponse("contains", "I think this is positive overall")
	mock.AddResponse("unknown", "no idea")

	clf := fitted(t, mock, func(o *PromptClassifierOptions) { o.Fallback = "neutral" })

	preds, err := clf.Predict(context.Background(), []string{"exact", "case", "contains", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, []string{"positive", "negative", "positive", "neutral"}, preds)

	reqs := mock.Requests()
	require.Len(t, reqs, 4)
	assert.Contains(t, reqs[0].System, "negative, positive")
	assert.Len(t, reqs[0].Messages, 9)
	assert.Equal(t, RoleUser, reqs[0].Messages[8].Role)
}

func TestPromptClassifier_UnmappedWithoutFallback(t *testing.T) {
	clf := fitted(t, NewMockCompleter("m"))
	_, err := clf.Predict(context.Background(), []string{"anything"})
	assert.ErrorIs(t, err, ErrUnmappedAnswer)
}

type failingCompleter struct{ err error }

func (f failingCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	return "", f.err
}
func (f failingCompleter) Info() Info { return Info{Name: "fail", Provider: "test"} }

func TestPromptClassifier_CompleterError(t *testing.T) {
	boom := errors.New("rate limited")
	clf := fitted(t, failingCompleter{err: boom})
	_, err := clf.Predict(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestPromptClassifier_HyperParamsAndProcessors(t *testing.T) {
	pre := processing.Lowercase()
	mock := NewMockCompleter("mock-1")
	mock.AddResponse("great", "positive")

	clf := fitted(t, mock, func(o *PromptClassifierOptions) {
		o.Preprocessor = pre
		o.Temperature = 0.2
	})

	assert.Equal(t, core.Params{"provider": "mock", "model": "mock-1", "temperature": 0.2, "shots": 4}, clf.HyperParams())
	assert.Equal(t, pre, clf.Preprocessor())
	assert.Nil(t, clf.Postprocessor())

	preds, err := clf.Predict(context.Background(), []string{"GREAT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"positive"}, preds)

	hp := clf.HyperParams()
	hp["shots"] = 99
	assert.Equal(t, 4, clf.HyperParams()["shots"])
}

func TestPromptClassifier_State(t *testing.T) {
	clf := fitted(t, NewMockCompleter("m"))

	var buf bytes.Buffer
	require.NoError(t, clf.SaveState(&buf))

	restored := NewPromptClassifier(NewMockCompleter("m"))
	require.NoError(t, restored.LoadState(&buf))
	assert.Equal(t, clf.Labels(), restored.Labels())
	assert.Equal(t, clf.examples, restored.examples)

	assert.ErrorIs(t, NewPromptClassifier(NewMockCompleter("m")).SaveState(&buf), ErrNotFitted)
}

func TestNewBase(t *testing.T) {
	hyper := core.Params{"alpha": 1}
	b := NewBase("svm", hyper, func(o *BaseOptions) { o.Postprocessor = processing.TrimSpace() })
	hyper["alpha"] = 2

	assert.Equal(t, "svm", b.Name())
	assert.Equal(t, core.Params{"alpha": 1}, b.HyperParams())
	assert.Nil(t, b.Preprocessor())
	assert.NotNil(t, b.Postprocessor())
}

func TestNewBase_NilPointerProcessors(t *testing.T) {
	b := NewBase("svm", nil, func(o *BaseOptions) {
		o.Preprocessor = (*processing.Chain[string])(nil)
		o.Postprocessor = processing.Lowercase()
	})

	assert.Nil(t, b.Preprocessor())
	assert.NotNil(t, b.Postprocessor())
}
