// Package nonsense implements the scoring engine that separates plausible
// natural-language tokens from randomly generated or corrupted identifiers.
//
// A FrequencyModel is built offline from a corpus of known-valid strings
// (see internal/trainer) and is immutable afterwards, so any number of
// goroutines may score against the same model without locking. Scoring
// rewards rare n-grams that repeat inside a single string, which is the
// dominant fingerprint of generated identifiers relative to natural words.
package nonsense

import (
	"fmt"
)

// NGramStats holds the per-ngram statistics fixed at model build time.
// Weight is an inverse-document-frequency style rarity measure; MaxFreq is
// the highest count of the ngram observed within any single corpus string.
type NGramStats struct {
	Weight  float64
	MaxFreq int
}

// FrequencyModel maps each known n-gram to its statistics. It is built once
// and never mutated; absent n-grams carry zero discriminating weight.
type FrequencyModel struct {
	n            int
	stats        map[string]NGramStats
	maxTotalFreq int
	maxWeight    float64
}

// NewFrequencyModel assembles a model from precomputed statistics. It is the
// single entry point used by both the trainer and the model loader, so a
// model can never exist half-populated. The stats map is retained by the
// model and must not be mutated by the caller afterwards.
func NewFrequencyModel(n int, stats map[string]NGramStats, maxTotalFreq int) (*FrequencyModel, error) {
	if n < 2 {
		return nil, fmt.Errorf("ngram length must be at least 2, got %d", n)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("frequency model has no entries")
	}
	for gram := range stats {
		if len(gram) != n {
			return nil, fmt.Errorf("ngram %q does not match model length %d", gram, n)
		}
	}
	if maxTotalFreq <= 0 {
		return nil, fmt.Errorf("max total frequency must be positive, got %d", maxTotalFreq)
	}
	var maxWeight float64
	for _, st := range stats {
		if st.Weight > maxWeight {
			maxWeight = st.Weight
		}
	}
	return &FrequencyModel{n: n, stats: stats, maxTotalFreq: maxTotalFreq, maxWeight: maxWeight}, nil
}

// N returns the n-gram window length the model was built with. Every scoring
// call against this model decomposes its input into windows of exactly this
// length.
func (m *FrequencyModel) N() int {
	return m.n
}

// Len returns the number of distinct n-grams in the model.
func (m *FrequencyModel) Len() int {
	return len(m.stats)
}

// MaxTotalFreq returns the corpus-wide maximum total frequency over all
// n-grams, the normalization ceiling recorded at build time.
func (m *FrequencyModel) MaxTotalFreq() int {
	return m.maxTotalFreq
}

// MaxWeight returns the largest rarity weight observed in the model. The
// scorer assigns it to n-grams the corpus never produced, since an unseen
// window is at least as unusual as the rarest recorded one.
func (m *FrequencyModel) MaxWeight() float64 {
	return m.maxWeight
}

// Lookup returns the statistics for gram. Unknown n-grams answer with a zero
// value rather than an error; callers decide how to treat them.
func (m *FrequencyModel) Lookup(gram string) NGramStats {
	return m.stats[gram]
}

// Range calls fn for every (ngram, stats) pair in the model, stopping early
// if fn returns false. Iteration order is unspecified.
func (m *FrequencyModel) Range(fn func(gram string, stats NGramStats) bool) {
	for gram, stats := range m.stats {
		if !fn(gram, stats) {
			return
		}
	}
}
