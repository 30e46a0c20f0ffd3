package sequence

import (
	"testing"

	"github.com/hupe1980/mlfabric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeled(words []string, gold, pred []string) Sentence {
	s := make(Sentence, len(words))
	for i, w := range words {
		s[i] = Token{Text: w, Tags: map[string]string{GoldLabelType: gold[i], LabelType: pred[i]}}
	}
	return s
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []Chunk
	}{
		{"iob2", []string{"B-PER", "I-PER", "O", "B-LOC"}, []Chunk{{"PER", 0, 2}, {"LOC", 3, 4}}},
		{"iob1", []string{"I-PER", "I-PER", "I-LOC"}, []Chunk{{"PER", 0, 2}, {"LOC", 2, 3}}},
		{"adjacent", []string{"B-PER", "B-PER"}, []Chunk{{"PER", 0, 1}, {"PER", 1, 2}}},
		{"outside", []string{"O", "O"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.tags))
		})
	}
}

func TestEvaluator_Scalar(t *testing.T) {
	sentences := []Sentence{labeled(
		[]string{"John", "Smith", "visits", "Rome"},
		[]string{"B-PER", "I-PER", "O", "B-LOC"},
		[]string{"B-PER", "I-PER", "O", "O"},
	)}

	res, err := NewEvaluator().Evaluate(sentences, DefaultLabelFields())
	require.NoError(t, err)

	m, err := res.Metrics()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, m["accuracy"], 1e-9)
	assert.InDelta(t, 1.0, m["precision"], 1e-9)
	assert.InDelta(t, 0.5, m["recall"], 1e-9)
	assert.InDelta(t, 2.0/3.0, m["f1"], 1e-9)
}

func TestEvaluator_ReadsGoldFromShadowOnly(t *testing.T) {
	s := labeled([]string{"Rome"}, []string{"B-LOC"}, []string{"O"})

	res, err := NewEvaluator().Evaluate([]Sentence{s}, LabelFields{})
	require.NoError(t, err)
	m, _ := res.Metrics()
	assert.Equal(t, 0.0, m["accuracy"])

	delete(s[0].Tags, GoldLabelType)
	_, err = NewEvaluator().Evaluate([]Sentence{s}, LabelFields{})
	assert.ErrorIs(t, err, ErrMissingGold)
}

func TestEvaluator_Batches(t *testing.T) {
	perfect := labeled([]string{"Rome"}, []string{"B-LOC"}, []string{"B-LOC"})
	wrong := labeled([]string{"Rome"}, []string{"B-LOC"}, []string{"O"})

	e := NewEvaluator(func(o *EvaluatorOptions) { o.BatchSize = 2 })
	res, err := e.Evaluate([]Sentence{perfect, perfect, wrong}, DefaultLabelFields())
	require.NoError(t, err)

	sr, ok := res.(core.StepResult)
	require.True(t, ok)
	assert.Equal(t, []int64{0, 1}, sr.Steps())

	first, err := sr.StepMetrics(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, first["f1"])

	second, err := sr.StepMetrics(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, second["accuracy"])

	_, err = res.Metrics()
	assert.ErrorIs(t, err, core.ErrStepRequired)
}

func TestEvaluator_Empty(t *testing.T) {
	_, err := NewEvaluator().Evaluate(nil, DefaultLabelFields())
	assert.ErrorIs(t, err, ErrNoTokens)
}
