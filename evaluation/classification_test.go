package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification_Evaluate(t *testing.T) {
	ev := NewClassification[string]()

	r, err := ev.Evaluate(
		[]string{"pos", "pos", "neg", "neg"},
		[]string{"pos", "neg", "neg", "neg"},
	)
	require.NoError(t, err)

	m, err := r.Metrics()
	require.NoError(t, err)
	// pos: tp=1 fp=1 fn=0 -> p=0.5 r=1; neg: tp=2 fp=0 fn=1 -> p=1 r=2/3
	assert.InDelta(t, 0.75, m["accuracy"], 1e-9)
	assert.InDelta(t, 0.75, m["precision"], 1e-9)
	assert.InDelta(t, (1+2.0/3)/2, m["recall"], 1e-9)
	assert.InDelta(t, (2.0/3+0.8)/2, m["f1"], 1e-9)
}

func TestClassification_Deterministic(t *testing.T) {
	ev := NewClassification[int]()
	pred := []int{1, 2, 3, 1, 2, 3, 4}
	gold := []int{1, 3, 3, 2, 2, 1, 4}

	first, err := ev.Evaluate(pred, gold)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ev.Evaluate(pred, gold)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassification_Errors(t *testing.T) {
	ev := NewClassification[string]()

	_, err := ev.Evaluate([]string{"a"}, nil)
	assert.ErrorIs(t, err, ErrGroundTruthRequired)

	_, err = ev.Evaluate([]string{"a"}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
