package testutil

import (
	"testing"

	"github.com/hupe1980/mlfabric/sequence"
	"github.com/stretchr/testify/assert"
)

func TestSentence(t *testing.T) {
	s := Sentence("John/B-PER Smith/I-PER runs")
	assert.Len(t, s, 3)
	assert.Equal(t, []string{"B-PER", "I-PER", "O"}, s.Tags(sequence.LabelType))
	assert.Equal(t, "Smith", s[1].Text)
}

func TestSentenceBuilder_LabelType(t *testing.T) {
	s := NewSentenceBuilder().Token("a", "B-LOC").LabelType(sequence.GoldLabelType).Token("b", "O").Build()
	assert.Equal(t, "B-LOC", s[0].Tag(sequence.LabelType))
	assert.Equal(t, "O", s[1].Tag(sequence.GoldLabelType))
	assert.Empty(t, s[1].Tag(sequence.LabelType))
}

func TestCorpusBuilder(t *testing.T) {
	c := NewCorpusBuilder().
		Train("Anna/B-PER sings/O").
		Dev("Paris/B-LOC").
		Test("Berlin/B-LOC", "Bob/B-PER").
		Build()

	assert.Len(t, c.Train, 1)
	assert.Len(t, c.Dev, 1)
	assert.Len(t, c.Test, 2)
	assert.Equal(t, "Bob", c.Test[1][0].Text)
}
