package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tokensift/token-screening-platform/internal/eval"
	"github.com/tokensift/token-screening-platform/internal/modelstore"
	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/pkg/config"
	"github.com/tokensift/token-screening-platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	labeledPath := flag.String("labeled", "", "labeled corpus file (label<TAB>string per line)")
	linesPath := flag.String("lines", "", "unlabeled corpus file, one string per line")
	sense := flag.String("sense", "valid", "label applied to -lines entries: valid or nonsense")
	minLength := flag.Int("min-length", 0, "skip strings shorter than this after normalization (defaults to config)")
	threshold := flag.Float64("threshold", 0, "classification threshold (defaults to config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	samples, err := loadSamples(*labeledPath, *linesPath, *sense)
	if err != nil {
		slog.Error("failed to load samples", "error", err)
		os.Exit(1)
	}
	if len(samples) == 0 {
		slog.Error("no samples to evaluate; pass -labeled or -lines")
		os.Exit(1)
	}

	store, err := modelstore.NewStore(cfg.Model.Dir)
	if err != nil {
		slog.Error("failed to open model store", "error", err)
		os.Exit(1)
	}
	model, err := store.Load(cfg.Model.Name)
	if err != nil {
		slog.Error("failed to load model", "name", cfg.Model.Name, "error", err)
		os.Exit(1)
	}

	cutoff := cfg.Model.Threshold
	if *threshold > 0 {
		cutoff = *threshold
	}
	minLen := cfg.Eval.MinLength
	if *minLength > 0 {
		minLen = *minLength
	}

	scorer := nonsense.NewScorer(model, cfg.Trainer.RepetitionExponent)
	classifier := nonsense.NewClassifier(scorer, cutoff)
	harness := eval.NewHarness(classifier, minLen, cfg.Eval.Workers)

	report, err := harness.Run(context.Background(), samples)
	if err != nil {
		slog.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("samples:          %d\n", len(samples))
	fmt.Printf("tested:           %d\n", report.Tested())
	fmt.Printf("skipped:          %d\n", report.Skipped)
	fmt.Printf("true positives:   %d\n", report.TruePositives)
	fmt.Printf("true negatives:   %d\n", report.TrueNegatives)
	fmt.Printf("false positives:  %d\n", report.FalsePositives)
	fmt.Printf("false negatives:  %d\n", report.FalseNegatives)
	fmt.Printf("accuracy:         %.4f\n", report.Accuracy())
	fmt.Printf("precision:        %.4f\n", report.Precision())
	fmt.Printf("recall:           %.4f\n", report.Recall())
	fmt.Printf("f1:               %.4f\n", report.F1())
	fmt.Printf("elapsed:          %s\n", report.Elapsed)
}

func loadSamples(labeledPath, linesPath, sense string) ([]eval.Sample, error) {
	if labeledPath != "" {
		f, err := os.Open(labeledPath)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", labeledPath, err)
		}
		defer f.Close()
		return eval.ReadLabeled(f)
	}
	if linesPath == "" {
		return nil, nil
	}
	label := eval.Label(sense)
	if label != eval.LabelValid && label != eval.LabelNonsense {
		return nil, fmt.Errorf("unknown -sense %q", sense)
	}
	f, err := os.Open(linesPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", linesPath, err)
	}
	defer f.Close()
	return eval.ReadLines(f, label)
}
