package nonsense_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/trainer"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// englishWords is a small reference corpus of real words with deliberately
// overlapping letter sequences, so common windows end up with low rarity
// weights the way they would in a full dictionary build.
var englishWords = []string{
	"university", "universe", "universal", "unity", "united",
	"conversation", "converse", "diverse", "diversity", "version",
	"information", "informal", "formation", "format", "formal",
	"station", "nation", "national", "rational", "ration",
	"computer", "computation", "compute", "company", "compare",
	"different", "difference", "differential", "offer", "suffer",
	"language", "luggage", "garage", "manage", "management",
	"interest", "interesting", "internal", "international", "interval",
	"possible", "possibly", "position", "positive", "deposit",
	"question", "request", "quest", "sequester", "frequent",
}

func buildTestModel(t testing.TB) *nonsense.FrequencyModel {
	t.Helper()
	model, err := trainer.Train(4, strings.NewReader(strings.Join(englishWords, "\n")))
	if err != nil {
		t.Fatalf("building reference model: %v", err)
	}
	return model
}

func TestScoreDeterministic(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	for _, text := range []string{"university", "xqjklqjklqjkl", "computation"} {
		first, err := scorer.Score(text)
		if err != nil {
			t.Fatalf("Score(%q): %v", text, err)
		}
		for i := 0; i < 5; i++ {
			again, err := scorer.Score(text)
			if err != nil {
				t.Fatalf("Score(%q): %v", text, err)
			}
			if again != first {
				t.Fatalf("Score(%q) not deterministic: %v then %v", text, first, again)
			}
		}
	}
}

func TestScoreIgnoresCaseAndPunctuation(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	base, err := scorer.Score("university")
	if err != nil {
		t.Fatal(err)
	}
	for _, variant := range []string{"UNIVERSITY", "Uni-ver-sity!", "u n i v e r s i t y", "university123"} {
		got, err := scorer.Score(variant)
		if err != nil {
			t.Fatalf("Score(%q): %v", variant, err)
		}
		if got != base {
			t.Errorf("Score(%q) = %v, want %v (same as plain form)", variant, got, base)
		}
	}
}

func TestScoreTooShort(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	for _, text := range []string{"", "abc", "a1b", "12345", "!!!", "x"} {
		_, err := scorer.Score(text)
		if !errors.Is(err, apperrors.ErrTextTooShort) {
			t.Errorf("Score(%q) err = %v, want ErrTextTooShort", text, err)
		}
	}
}

func TestRepeatedLetterScoresAboveNaturalWord(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	pairs := []struct{ repeated, word string }{
		{"aaaaaaaaaa", "university"},
		{"zzzzzzzz", "question"},
		{"qqqqqqqqqqqq", "conversation"},
	}
	for _, p := range pairs {
		repeated, err := scorer.Score(p.repeated)
		if err != nil {
			t.Fatal(err)
		}
		word, err := scorer.Score(p.word)
		if err != nil {
			t.Fatal(err)
		}
		if repeated <= word {
			t.Errorf("Score(%q) = %v, expected above Score(%q) = %v", p.repeated, repeated, p.word, word)
		}
	}
}

func TestScoreRewardsRepetition(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	// Each appended copy of a rare window must not make the string look less
	// suspicious, even though the normalizing length grows with it.
	prev := 0.0
	text := "xqjkl"
	for i := 0; i < 6; i++ {
		text += "qjkl"
		score, err := scorer.Score(text)
		if err != nil {
			t.Fatal(err)
		}
		if score < prev {
			t.Fatalf("score decreased from %v to %v at %q", prev, score, text)
		}
		prev = score
	}
}

func TestUnseenWindowsOutscoreCorpusWords(t *testing.T) {
	scorer := nonsense.NewScorer(buildTestModel(t), 0)

	junk, err := scorer.Score("xqjklqjklqjkl")
	if err != nil {
		t.Fatal(err)
	}
	for _, word := range englishWords {
		score, err := scorer.Score(word)
		if err != nil {
			t.Fatalf("Score(%q): %v", word, err)
		}
		if score >= junk {
			t.Errorf("corpus word %q scored %v, at or above junk score %v", word, score, junk)
		}
	}
}

func TestNewScorerDefaultExponent(t *testing.T) {
	model := buildTestModel(t)
	defaulted := nonsense.NewScorer(model, 0)
	explicit := nonsense.NewScorer(model, nonsense.DefaultRepetitionExponent)

	a, err := defaulted.Score("xqjklqjklqjkl")
	if err != nil {
		t.Fatal(err)
	}
	b, err := explicit.Score("xqjklqjklqjkl")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("zero exponent must fall back to the default: %v vs %v", a, b)
	}
}
