package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tokensift/token-screening-platform/internal/eval"
	"github.com/tokensift/token-screening-platform/internal/modelstore"
	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/registry"
	"github.com/tokensift/token-screening-platform/internal/trainer"
	"github.com/tokensift/token-screening-platform/pkg/config"
	"github.com/tokensift/token-screening-platform/pkg/logger"
	"github.com/tokensift/token-screening-platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPaths := flag.String("corpus", "", "comma-separated corpus files of known-valid strings, one per line")
	name := flag.String("name", "", "model name (defaults to config model name)")
	ngramLen := flag.Int("ngram", 0, "ngram window length (defaults to config)")
	validPath := flag.String("calibrate-valid", "", "optional file of valid strings for threshold calibration")
	nonsensePath := flag.String("calibrate-nonsense", "", "optional file of nonsense strings for threshold calibration")
	skipRegistry := flag.Bool("skip-registry", false, "do not publish the model to the postgres registry")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *corpusPaths == "" {
		slog.Error("at least one -corpus file is required")
		os.Exit(1)
	}
	if *name == "" {
		*name = cfg.Model.Name
	}
	n := cfg.Trainer.NGramLength
	if *ngramLen > 0 {
		n = *ngramLen
	}

	start := time.Now()
	builder := trainer.NewBuilder(n)
	for _, path := range strings.Split(*corpusPaths, ",") {
		f, err := os.Open(strings.TrimSpace(path))
		if err != nil {
			slog.Error("failed to open corpus file", "path", path, "error", err)
			os.Exit(1)
		}
		if err := builder.AddReader(f); err != nil {
			f.Close()
			slog.Error("failed to read corpus file", "path", path, "error", err)
			os.Exit(1)
		}
		f.Close()
	}
	model, err := builder.Build()
	if err != nil {
		slog.Error("model build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("model built",
		"name", *name,
		"ngram_length", model.N(),
		"ngrams", model.Len(),
		"corpus_strings", builder.Strings(),
		"elapsed", time.Since(start),
	)

	threshold := cfg.Model.Threshold
	if *validPath != "" && *nonsensePath != "" {
		scorer := nonsense.NewScorer(model, cfg.Trainer.RepetitionExponent)
		result, err := calibrate(scorer, *validPath, *nonsensePath)
		if err != nil {
			slog.Error("calibration failed", "error", err)
			os.Exit(1)
		}
		threshold = result.Threshold
		slog.Info("threshold calibrated",
			"threshold", result.Threshold,
			"accuracy", result.Accuracy,
			"valid_scored", result.ValidScored,
			"nonsense_scored", result.InvalidScored,
		)
	}

	store, err := modelstore.NewStore(cfg.Model.Dir)
	if err != nil {
		slog.Error("failed to open model store", "error", err)
		os.Exit(1)
	}
	if err := store.Save(*name, model); err != nil {
		slog.Error("failed to save model", "error", err)
		os.Exit(1)
	}
	slog.Info("model saved", "path", store.Path(*name))

	if *skipRegistry {
		return
	}
	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, model not published to registry", "error", err)
		return
	}
	defer pgClient.Close()

	checksum, err := store.Checksum(*name)
	if err != nil {
		slog.Error("failed to checksum model file", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	reg := registry.New(pgClient)
	if err := reg.Migrate(ctx); err != nil {
		slog.Error("registry migration failed", "error", err)
		os.Exit(1)
	}
	rec, err := reg.Publish(ctx, registry.ModelRecord{
		Name:        *name,
		NGramLength: model.N(),
		Threshold:   threshold,
		NGramCount:  model.Len(),
		FilePath:    store.Path(*name),
		Checksum:    checksum,
	})
	if err != nil {
		slog.Error("failed to publish model", "error", err)
		os.Exit(1)
	}
	slog.Info("model published", "name", rec.Name, "version", rec.Version)
}

func calibrate(scorer *nonsense.Scorer, validPath, nonsensePath string) (trainer.CalibrationResult, error) {
	valid, err := readSamples(validPath, eval.LabelValid)
	if err != nil {
		return trainer.CalibrationResult{}, err
	}
	invalid, err := readSamples(nonsensePath, eval.LabelNonsense)
	if err != nil {
		return trainer.CalibrationResult{}, err
	}
	return trainer.Calibrate(scorer, valid, invalid)
}

func readSamples(path string, label eval.Label) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	samples, err := eval.ReadLines(f, label)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(samples))
	for i, s := range samples {
		texts[i] = s.Text
	}
	return texts, nil
}
