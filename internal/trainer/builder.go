// Package trainer builds frequency models from reference corpora of
// known-valid strings and calibrates classification thresholds against
// labeled data. Everything here runs offline; the hot path only ever sees
// the finished immutable model.
package trainer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// Builder accumulates corpus strings and compiles them into a
// FrequencyModel. It is not safe for concurrent use; build into a fresh
// Builder and publish the compiled model atomically instead.
type Builder struct {
	n        int
	total    int
	docFreq  map[string]int
	maxFreq  map[string]int
	totalCnt map[string]int
}

// NewBuilder creates a Builder for the given n-gram window length.
func NewBuilder(n int) *Builder {
	return &Builder{
		n:        n,
		docFreq:  make(map[string]int),
		maxFreq:  make(map[string]int),
		totalCnt: make(map[string]int),
	}
}

// Add folds one corpus string into the running statistics. Strings whose
// normalized form is shorter than the window length contribute nothing.
func (b *Builder) Add(text string) {
	normalized := nonsense.Normalize(text)
	if len(normalized) < b.n {
		return
	}
	b.total++
	for gram, count := range nonsense.NGramCounts(normalized, b.n) {
		b.docFreq[gram]++
		b.totalCnt[gram] += count
		if count > b.maxFreq[gram] {
			b.maxFreq[gram] = count
		}
	}
}

// AddReader folds every line of rdr into the statistics, one corpus string
// per line. Blank lines and #-comments are skipped.
func (b *Builder) AddReader(rdr io.Reader) error {
	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading corpus: %w", err)
	}
	return nil
}

// Strings returns the number of corpus strings folded in so far.
func (b *Builder) Strings() int {
	return b.total
}

// Build compiles the accumulated statistics into an immutable
// FrequencyModel. Each n-gram's weight is inverse document frequency,
// log(N/docFreq), so n-grams that appear in nearly every corpus string carry
// almost no discriminating weight. Build fails without producing a partial
// model when the corpus is empty or no string was long enough to yield a
// single n-gram.
func (b *Builder) Build() (*nonsense.FrequencyModel, error) {
	if b.total == 0 {
		return nil, fmt.Errorf("%w: no usable strings for ngram length %d",
			apperrors.ErrEmptyCorpus, b.n)
	}
	if len(b.docFreq) == 0 {
		return nil, fmt.Errorf("%w: ngram length %d", apperrors.ErrNoNGrams, b.n)
	}

	stats := make(map[string]nonsense.NGramStats, len(b.docFreq))
	maxTotal := 0
	for gram, df := range b.docFreq {
		stats[gram] = nonsense.NGramStats{
			Weight:  math.Log(float64(b.total) / float64(df)),
			MaxFreq: b.maxFreq[gram],
		}
		if b.totalCnt[gram] > maxTotal {
			maxTotal = b.totalCnt[gram]
		}
	}
	return nonsense.NewFrequencyModel(b.n, stats, maxTotal)
}

// Train is a convenience wrapper that folds one or more corpus readers into
// a fresh Builder and compiles the model.
func Train(n int, rdrs ...io.Reader) (*nonsense.FrequencyModel, error) {
	if len(rdrs) == 0 {
		return nil, fmt.Errorf("trainer: requires at least one corpus reader")
	}
	b := NewBuilder(n)
	for _, rdr := range rdrs {
		if err := b.AddReader(rdr); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
