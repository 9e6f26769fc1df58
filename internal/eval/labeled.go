// Package eval runs a classifier over labeled test corpora and aggregates
// the outcomes into a confusion matrix. "Positive" always means a string
// labeled as nonsense, regardless of which side of the corpus it came from.
package eval

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// Label marks which side of the corpus a sample belongs to.
type Label string

const (
	LabelValid    Label = "valid"
	LabelNonsense Label = "nonsense"
)

// Sample is one labeled test case.
type Sample struct {
	Label Label
	Text  string
}

// ReadLabeled parses two-column records of the form "label<TAB>string", one
// per line. Blank lines and #-comments are ignored. Labels must be "valid"
// or "nonsense".
func ReadLabeled(rdr io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(rdr)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		label, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected label<TAB>string", apperrors.ErrInvalidInput, lineNo)
		}
		text = strings.TrimSpace(text)
		switch Label(strings.TrimSpace(label)) {
		case LabelValid:
			samples = append(samples, Sample{Label: LabelValid, Text: text})
		case LabelNonsense:
			samples = append(samples, Sample{Label: LabelNonsense, Text: text})
		default:
			return nil, fmt.Errorf("%w: line %d: unknown label %q", apperrors.ErrInvalidInput, lineNo, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading labeled corpus: %w", err)
	}
	return samples, nil
}

// ReadLines parses an unlabeled line-oriented list and applies the same
// label to every entry, for corpora known to be all-valid or all-nonsense.
func ReadLines(rdr io.Reader, label Label) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		samples = append(samples, Sample{Label: label, Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return samples, nil
}
