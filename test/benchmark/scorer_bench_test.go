package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/trainer"
)

var corpusWords = []string{
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

var sampleInputs = map[string]string{
	"word":       "university",
	"sentence":   "the quick brown fox jumps over the lazy dog",
	"identifier": "getUserAccountBalanceByID",
	"junk":       "xqjklqjklqjklzxcvzxcvwkwkwkwk",
	"long":       strings.Repeat("information retrieval systems form the backbone of search ", 50),
}

func buildScorer(b *testing.B) *nonsense.Scorer {
	b.Helper()
	model, err := trainer.Train(4, strings.NewReader(strings.Join(corpusWords, "\n")))
	if err != nil {
		b.Fatal(err)
	}
	return nonsense.NewScorer(model, 0)
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range sampleInputs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = nonsense.Normalize(text)
			}
		})
	}
}

func BenchmarkScore(b *testing.B) {
	scorer := buildScorer(b)
	for name, text := range sampleInputs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				if _, err := scorer.Score(text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkScoreParallel(b *testing.B) {
	scorer := buildScorer(b)
	text := sampleInputs["sentence"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := scorer.Score(text); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkClassify(b *testing.B) {
	classifier := nonsense.NewClassifier(buildScorer(b), 4.0)
	inputs := []string{"university", "xqjklqjklqjkl", "conversation", "zxcvzxcvzxcv"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := classifier.Classify(inputs[i%len(inputs)]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTrainVaryingSize(b *testing.B) {
	sizes := []int{10, 25, 50}
	for _, size := range sizes {
		words := corpusWords[:size]
		corpus := strings.Join(words, "\n")
		b.Run(fmt.Sprintf("words_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(corpus)))
			for i := 0; i < b.N; i++ {
				if _, err := trainer.Train(4, strings.NewReader(corpus)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
