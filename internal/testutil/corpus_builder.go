package testutil

import (
	"strings"

	"github.com/hupe1980/mlfabric/sequence"
)

// SentenceBuilder helps construct labelled sentences with fluent chaining.
// Example:
//
//	s := NewSentenceBuilder().Token("John", "B-PER").Token("runs", "O").Build()
type SentenceBuilder struct {
	labelType string
	tokens    sequence.Sentence
}

// NewSentenceBuilder creates a builder tagging tokens with sequence.LabelType.
func NewSentenceBuilder() *SentenceBuilder {
	return &SentenceBuilder{labelType: sequence.LabelType}
}

// LabelType switches the label type used by subsequent Token calls (chainable).
func (b *SentenceBuilder) LabelType(typ string) *SentenceBuilder {
	b.labelType = typ
	return b
}

// Token appends a token carrying label (chainable).
func (b *SentenceBuilder) Token(text, label string) *SentenceBuilder {
	b.tokens = append(b.tokens, sequence.Token{Text: text, Tags: map[string]string{b.labelType: label}})
	return b
}

// Build returns the sentence.
func (b *SentenceBuilder) Build() sequence.Sentence {
	return b.tokens
}

// Sentence parses "word/LABEL" pairs separated by spaces into a sentence
// labelled with sequence.LabelType. A pair without a slash gets the empty
// label.
func Sentence(tagged string) sequence.Sentence {
	b := NewSentenceBuilder()
	for _, field := range strings.Fields(tagged) {
		text, label, ok := strings.Cut(field, "/")
		if !ok {
			label = sequence.EmptyLabel
		}
		b.Token(text, label)
	}
	return b.Build()
}

// CorpusBuilder assembles a sequence.Corpus fold by fold.
// Example:
//
//	c := NewCorpusBuilder().Train("Anna/B-PER sings").Test("Berlin/B-LOC").Build()
type CorpusBuilder struct {
	corpus sequence.Corpus
}

// NewCorpusBuilder creates an empty corpus builder.
func NewCorpusBuilder() *CorpusBuilder {
	return &CorpusBuilder{}
}

// Train appends training sentences in Sentence notation (chainable).
func (b *CorpusBuilder) Train(tagged ...string) *CorpusBuilder {
	b.corpus.Train = appendTagged(b.corpus.Train, tagged)
	return b
}

// Dev appends development sentences in Sentence notation (chainable).
func (b *CorpusBuilder) Dev(tagged ...string) *CorpusBuilder {
	b.corpus.Dev = appendTagged(b.corpus.Dev, tagged)
	return b
}

// Test appends test sentences in Sentence notation (chainable).
func (b *CorpusBuilder) Test(tagged ...string) *CorpusBuilder {
	b.corpus.Test = appendTagged(b.corpus.Test, tagged)
	return b
}

// Build returns a *sequence.Corpus holding the accumulated folds.
func (b *CorpusBuilder) Build() *sequence.Corpus {
	c := b.corpus
	return &c
}

func appendTagged(dst []sequence.Sentence, tagged []string) []sequence.Sentence {
	for _, t := range tagged {
		dst = append(dst, Sentence(t))
	}
	return dst
}
