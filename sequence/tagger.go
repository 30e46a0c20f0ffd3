package sequence

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/mlfabric/core"
)

// Tagger is a trainable sequence labeling model. Predict writes its output
// to the live label type of the given sentences and returns them.
type Tagger interface {
	core.Named
	HyperParams() core.Params
	Fit(ctx context.Context, corpus *Corpus) error
	Predict(ctx context.Context, sentences []Sentence) ([]Sentence, error)
}

// ErrNotFitted is returned when Predict is called before Fit.
var ErrNotFitted = errors.New("tagger is not fitted")

// UnigramTagger assigns every word the label it carried most often in the
// training fold. Unknown words get EmptyLabel.
type UnigramTagger struct {
	labelType string
	lowercase bool
	lexicon   map[string]string
	fitted    int
}

var (
	_ Tagger        = (*UnigramTagger)(nil)
	_ core.Loggable = (*UnigramTagger)(nil)
)

// NewUnigramTagger creates a tagger predicting labels of labelType.
func NewUnigramTagger(labelType string, lowercase bool) *UnigramTagger {
	if labelType == "" {
		labelType = LabelType
	}
	return &UnigramTagger{labelType: labelType, lowercase: lowercase}
}

// Name implements core.Named.
func (t *UnigramTagger) Name() string { return "UnigramTagger" }

// HyperParams returns the tagger configuration.
func (t *UnigramTagger) HyperParams() core.Params {
	return core.Params{"label_type": t.labelType, "lowercase": t.lowercase}
}

// Params implements core.Loggable.
func (t *UnigramTagger) Params() core.Params { return nil }

// Metrics implements core.Loggable and reports the lexicon size once fitted.
func (t *UnigramTagger) Metrics() core.Metrics {
	if t.lexicon == nil {
		return nil
	}
	return core.Metrics{"lexicon_size": float64(len(t.lexicon)), "train_tokens": float64(t.fitted)}
}

func (t *UnigramTagger) key(word string) string {
	if t.lowercase {
		return strings.ToLower(word)
	}
	return word
}

// Fit implements Tagger.
func (t *UnigramTagger) Fit(ctx context.Context, corpus *Corpus) error {
	if corpus == nil {
		return errors.New("nil corpus")
	}
	freq := make(map[string]map[string]int)
	tokens := 0
	for _, s := range corpus.Train {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, tok := range s {
			label := tok.Tag(t.labelType)
			if label == "" {
				continue
			}
			k := t.key(tok.Text)
			if freq[k] == nil {
				freq[k] = make(map[string]int)
			}
			freq[k][label]++
			tokens++
		}
	}

	lexicon := make(map[string]string, len(freq))
	for word, labels := range freq {
		best, bestN := "", -1
		for label, n := range labels {
			if n > bestN || (n == bestN && label < best) {
				best, bestN = label, n
			}
		}
		lexicon[word] = best
	}
	t.lexicon = lexicon
	t.fitted = tokens
	return nil
}

// Predict implements Tagger.
func (t *UnigramTagger) Predict(ctx context.Context, sentences []Sentence) ([]Sentence, error) {
	if t.lexicon == nil {
		return nil, ErrNotFitted
	}
	for _, s := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range s {
			label, ok := t.lexicon[t.key(s[i].Text)]
			if !ok {
				label = EmptyLabel
			}
			s[i].SetTag(t.labelType, label)
		}
	}
	return sentences, nil
}
