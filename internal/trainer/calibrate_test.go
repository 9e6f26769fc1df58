package trainer

import (
	"errors"
	"strings"
	"testing"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

func calibrationScorer(t *testing.T) *nonsense.Scorer {
	t.Helper()
	corpus := "university\nuniverse\nconversation\nquestion\nrequest\ninformation\nformation\nnational\ncomputer\ncompany"
	model, err := Train(4, strings.NewReader(corpus))
	if err != nil {
		t.Fatal(err)
	}
	return nonsense.NewScorer(model, 0)
}

func TestCalibrateSeparatesSets(t *testing.T) {
	scorer := calibrationScorer(t)
	valid := []string{"university", "question", "information", "national"}
	invalid := []string{"xqjklqjklqjkl", "qqqqqqqqqq", "zxcvzxcvzxcv"}

	result, err := Calibrate(scorer, valid, invalid)
	if err != nil {
		t.Fatal(err)
	}
	if result.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0 on cleanly separable sets", result.Accuracy)
	}
	if result.ValidScored != len(valid) || result.InvalidScored != len(invalid) {
		t.Errorf("scored %d/%d, want %d/%d", result.ValidScored, result.InvalidScored, len(valid), len(invalid))
	}

	// The picked threshold must sit strictly between the two distributions.
	for _, text := range valid {
		score, err := scorer.Score(text)
		if err != nil {
			t.Fatal(err)
		}
		if score > result.Threshold {
			t.Errorf("valid %q scores %v above threshold %v", text, score, result.Threshold)
		}
	}
	for _, text := range invalid {
		score, err := scorer.Score(text)
		if err != nil {
			t.Fatal(err)
		}
		if score <= result.Threshold {
			t.Errorf("nonsense %q scores %v at or below threshold %v", text, score, result.Threshold)
		}
	}
}

func TestCalibrateSkipsUnscorableSamples(t *testing.T) {
	scorer := calibrationScorer(t)

	result, err := Calibrate(scorer,
		[]string{"ab", "university", ""},
		[]string{"x", "xqjklqjklqjkl"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if result.ValidScored != 1 || result.InvalidScored != 1 {
		t.Errorf("scored %d/%d, want 1/1 after dropping short samples", result.ValidScored, result.InvalidScored)
	}
}

func TestCalibrateFailsWithoutScorableSamples(t *testing.T) {
	scorer := calibrationScorer(t)

	_, err := Calibrate(scorer, []string{"ab"}, []string{"xqjklqjklqjkl"})
	if !errors.Is(err, apperrors.ErrCalibration) {
		t.Errorf("err = %v, want ErrCalibration when one side has no scores", err)
	}

	_, err = Calibrate(scorer, nil, nil)
	if !errors.Is(err, apperrors.ErrCalibration) {
		t.Errorf("err = %v, want ErrCalibration on empty input", err)
	}
}

func TestCalibrateFailsOnInseparableSets(t *testing.T) {
	scorer := calibrationScorer(t)

	same := []string{"university", "question"}
	_, err := Calibrate(scorer, same, same)
	if !errors.Is(err, apperrors.ErrCalibration) {
		t.Errorf("err = %v, want ErrCalibration for identical distributions", err)
	}
}
