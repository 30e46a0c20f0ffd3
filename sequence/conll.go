package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultColumns is the column layout of the CoNLL-2003 English files.
var DefaultColumns = []string{"text", "pos", "chunk", LabelType}

const docStart = "-DOCSTART-"

// ReadCoNLL parses whitespace separated CoNLL data. Sentences are separated by
// blank lines, document markers are skipped. columns names the tag type of
// every column; the column named "text" holds the token text.
func ReadCoNLL(r io.Reader, columns []string) ([]Sentence, error) {
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	var (
		sentences []Sentence
		current   Sentence
		lineNo    int
	)
	flush := func() {
		if len(current) > 0 {
			sentences = append(sentences, current)
			current = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == docStart {
			flush()
			continue
		}
		if len(fields) != len(columns) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(columns), len(fields))
		}
		tok := Token{Tags: make(map[string]string, len(columns)-1)}
		for i, col := range columns {
			if col == "text" {
				tok.Text = fields[i]
				continue
			}
			tok.Tags[col] = fields[i]
		}
		current = append(current, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return sentences, nil
}
