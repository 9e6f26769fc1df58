package nonsense

import (
	"errors"

	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// Result is the outcome of classifying a single string. When Scorable is
// false the input could not be scored (normalized form shorter than the
// model's n-gram length) and Nonsense and Score carry no meaning; this is
// deliberately distinct from a genuine score of zero.
type Result struct {
	Nonsense bool
	Score    float64
	Scorable bool
}

// Classifier thresholds nonsense scores into verdicts.
type Classifier struct {
	scorer    *Scorer
	threshold float64
}

// NewClassifier wraps a scorer with a calibrated cutoff. The threshold is
// fixed per model and calibrated offline against labeled data.
func NewClassifier(scorer *Scorer, threshold float64) *Classifier {
	return &Classifier{scorer: scorer, threshold: threshold}
}

// Threshold returns the classification cutoff.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Model returns the frequency model backing the classifier.
func (c *Classifier) Model() *FrequencyModel {
	return c.scorer.Model()
}

// Classify scores text and thresholds the result. A score strictly greater
// than the threshold is nonsense; a score exactly equal to the threshold
// resolves to valid. Unscorable inputs come back with Scorable false and no
// error, so callers never need exception-style control flow to detect them;
// any other scoring failure is returned as-is.
func (c *Classifier) Classify(text string) (Result, error) {
	score, err := c.scorer.Score(text)
	if err != nil {
		if errors.Is(err, apperrors.ErrTextTooShort) {
			return Result{}, nil
		}
		return Result{}, err
	}
	return Result{
		Nonsense: score > c.threshold,
		Score:    score,
		Scorable: true,
	}, nil
}
