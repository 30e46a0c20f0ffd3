package sequence

import "maps"

const (
	// LabelType is the live tag type a tagger writes its predictions to.
	LabelType = "ner"
	// GoldLabelType is the shadow tag type holding relocated gold labels.
	GoldLabelType = "gold_ner"
	// EmptyLabel is the "outside" label assigned before prediction.
	EmptyLabel = "O"
)

// Token is one word of a sentence together with its typed tags.
type Token struct {
	Text string
	Tags map[string]string
}

// Tag returns the tag of the given type or "" when absent.
func (t Token) Tag(typ string) string { return t.Tags[typ] }

// SetTag assigns a tag value, allocating the tag map when needed.
func (t *Token) SetTag(typ, value string) {
	if t.Tags == nil {
		t.Tags = make(map[string]string, 2)
	}
	t.Tags[typ] = value
}

// Sentence is an ordered list of tokens.
type Sentence []Token

// Tags returns the tag of the given type for every token.
func (s Sentence) Tags(typ string) []string {
	out := make([]string, len(s))
	for i, tok := range s {
		out[i] = tok.Tag(typ)
	}
	return out
}

// Corpus groups the train, dev and test folds of a dataset.
type Corpus struct {
	Train []Sentence
	Dev   []Sentence
	Test  []Sentence
}

// Clone returns a deep copy of the sentences; the copy shares no tag maps
// with the input.
func Clone(sentences []Sentence) []Sentence {
	if sentences == nil {
		return nil
	}
	out := make([]Sentence, len(sentences))
	for i, s := range sentences {
		cp := make(Sentence, len(s))
		for j, tok := range s {
			cp[j] = Token{Text: tok.Text, Tags: maps.Clone(tok.Tags)}
		}
		out[i] = cp
	}
	return out
}

// RelocateLabels moves the tag of type from to type to on every token and
// resets from to empty. Sentences are modified in place.
func RelocateLabels(sentences []Sentence, from, to, empty string) {
	for _, s := range sentences {
		for i := range s {
			s[i].SetTag(to, s[i].Tag(from))
			s[i].SetTag(from, empty)
		}
	}
}
