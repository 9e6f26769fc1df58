package nonsense_test

import (
	"testing"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/trainer"
)

var junkStrings = []string{
	"xqjklqjklqjkl",
	"zxcvzxcvzxcv",
	"qqqqqqqqqq",
	"jfjfjfjfjfjf",
	"aaaaaaaaaa",
	"wkwkwkwkwkwk",
}

func buildTestClassifier(t testing.TB) *nonsense.Classifier {
	t.Helper()
	scorer := nonsense.NewScorer(buildTestModel(t), 0)
	cal, err := trainer.Calibrate(scorer, englishWords, junkStrings)
	if err != nil {
		t.Fatalf("calibrating threshold: %v", err)
	}
	return nonsense.NewClassifier(scorer, cal.Threshold)
}

func TestClassifyVerdicts(t *testing.T) {
	classifier := buildTestClassifier(t)

	cases := []struct {
		text     string
		nonsense bool
	}{
		{"university", false},
		{"conversation", false},
		{"international", false},
		{"xqjklqjklqjkl", true},
		{"aaaaaaaaaa", true},
		{"zxcvzxcvzxcv", true},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			result, err := classifier.Classify(tc.text)
			if err != nil {
				t.Fatalf("Classify(%q): %v", tc.text, err)
			}
			if !result.Scorable {
				t.Fatalf("Classify(%q) not scorable", tc.text)
			}
			if result.Nonsense != tc.nonsense {
				t.Errorf("Classify(%q) = %v (score %.3f, threshold %.3f), want nonsense=%v",
					tc.text, result.Nonsense, result.Score, classifier.Threshold(), tc.nonsense)
			}
		})
	}
}

func TestClassifyUnscorable(t *testing.T) {
	classifier := buildTestClassifier(t)

	for _, text := range []string{"", "ab", "a-b", "12345", "?!?!"} {
		result, err := classifier.Classify(text)
		if err != nil {
			t.Fatalf("Classify(%q) must not error on short input: %v", text, err)
		}
		if result.Scorable {
			t.Errorf("Classify(%q) reported scorable", text)
		}
		if result.Nonsense || result.Score != 0 {
			t.Errorf("unscorable result must be zero valued, got %+v", result)
		}
	}
}

func TestClassifyThresholdTieIsValid(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)
	score, err := scorer.Score("xqjklqjklqjkl")
	if err != nil {
		t.Fatal(err)
	}

	// With the threshold pinned to the exact score, the verdict must resolve
	// to valid: only scores strictly above the cutoff are nonsense.
	classifier := nonsense.NewClassifier(scorer, score)
	result, err := classifier.Classify("xqjklqjklqjkl")
	if err != nil {
		t.Fatal(err)
	}
	if result.Nonsense {
		t.Errorf("score equal to threshold classified as nonsense")
	}
}
