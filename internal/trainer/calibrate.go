package trainer

import (
	"fmt"
	"sort"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// CalibrationResult reports the picked threshold and how well it separates
// the labeled calibration sets.
type CalibrationResult struct {
	Threshold     float64
	Accuracy      float64
	ValidScored   int
	InvalidScored int
}

// Calibrate picks the classification threshold that best separates the
// scores of known-valid strings from known-nonsense strings. Candidate
// cutoffs are the midpoints between adjacent observed scores; ties prefer
// the lower threshold. Strings too short to score are ignored. Calibration
// fails when either set yields no scores at all, or the two score
// distributions are inseparable (best accuracy no better than a coin flip).
func Calibrate(scorer *nonsense.Scorer, valid, invalid []string) (CalibrationResult, error) {
	validScores := scoreAll(scorer, valid)
	invalidScores := scoreAll(scorer, invalid)
	if len(validScores) == 0 || len(invalidScores) == 0 {
		return CalibrationResult{}, fmt.Errorf("%w: need scorable samples on both sides (valid=%d, nonsense=%d)",
			apperrors.ErrCalibration, len(validScores), len(invalidScores))
	}

	all := make([]float64, 0, len(validScores)+len(invalidScores))
	all = append(all, validScores...)
	all = append(all, invalidScores...)
	sort.Float64s(all)

	best := CalibrationResult{
		ValidScored:   len(validScores),
		InvalidScored: len(invalidScores),
	}
	for i := 0; i < len(all); i++ {
		candidate := all[i]
		if i+1 < len(all) {
			candidate = (all[i] + all[i+1]) / 2
		}
		acc := accuracyAt(candidate, validScores, invalidScores)
		if acc > best.Accuracy {
			best.Accuracy = acc
			best.Threshold = candidate
		}
	}

	if best.Accuracy <= 0.5 {
		return CalibrationResult{}, fmt.Errorf("%w: score distributions are inseparable (best accuracy %.3f)",
			apperrors.ErrCalibration, best.Accuracy)
	}
	return best, nil
}

func scoreAll(scorer *nonsense.Scorer, texts []string) []float64 {
	scores := make([]float64, 0, len(texts))
	for _, text := range texts {
		score, err := scorer.Score(text)
		if err != nil {
			// Too-short samples carry no calibration signal.
			continue
		}
		scores = append(scores, score)
	}
	return scores
}

// accuracyAt treats scores above the threshold as nonsense verdicts and
// returns the fraction of calibration samples classified correctly.
func accuracyAt(threshold float64, validScores, invalidScores []float64) float64 {
	correct := 0
	for _, s := range validScores {
		if s <= threshold {
			correct++
		}
	}
	for _, s := range invalidScores {
		if s > threshold {
			correct++
		}
	}
	return float64(correct) / float64(len(validScores)+len(invalidScores))
}
