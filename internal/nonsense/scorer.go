package nonsense

import (
	"fmt"
	"math"

	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// DefaultRepetitionExponent super-linearly rewards n-grams repeated within
// the same string. Real words rarely repeat a 3-5 letter sequence; random
// strings often do by chance.
const DefaultRepetitionExponent = 1.195

// Scorer computes nonsense scores against an immutable FrequencyModel.
// A zero exponent falls back to DefaultRepetitionExponent.
type Scorer struct {
	model    *FrequencyModel
	exponent float64
}

// NewScorer binds a scorer to a model. Passing the model explicitly (rather
// than reading a process-wide default) keeps scoring deterministic and makes
// testing against several models with different n-gram lengths trivial.
func NewScorer(model *FrequencyModel, exponent float64) *Scorer {
	if exponent <= 0 {
		exponent = DefaultRepetitionExponent
	}
	return &Scorer{model: model, exponent: exponent}
}

// Model returns the frequency model the scorer consults.
func (s *Scorer) Model() *FrequencyModel {
	return s.model
}

// Score normalizes text and returns its nonsense score. Inputs whose
// normalized form is shorter than the model's n-gram length are not
// scorable: Score returns an error wrapping errors.ErrTextTooShort, never a
// plain zero, so batch callers can count them as skipped rather than as
// valid verdicts.
//
// For each distinct n-gram present with in-string count c, model weight w,
// and model max-observed-count m, the accumulated contribution is
//
//	w * c^p * (0.5 + 0.5*c/m)
//
// and the total is divided by the normalized length so scores are comparable
// across strings of different lengths. N-grams the corpus never produced are
// the strongest nonsense signal there is, so they score as if they were the
// rarest recorded n-gram seen exactly once.
func (s *Scorer) Score(text string) (float64, error) {
	normalized := Normalize(text)
	n := s.model.N()
	if len(normalized) < n {
		return 0, fmt.Errorf("%w: normalized length %d below ngram length %d",
			apperrors.ErrTextTooShort, len(normalized), n)
	}

	var total float64
	for gram, count := range NGramCounts(normalized, n) {
		stats := s.model.Lookup(gram)
		if stats.MaxFreq == 0 {
			stats = NGramStats{Weight: s.model.MaxWeight(), MaxFreq: 1}
		}
		c := float64(count)
		repetition := math.Pow(c, s.exponent)
		saturation := 0.5 + 0.5*c/float64(stats.MaxFreq)
		total += stats.Weight * repetition * saturation
	}
	return total / float64(len(normalized)), nil
}
