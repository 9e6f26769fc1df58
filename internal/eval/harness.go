package eval

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
)

// Matrix is the confusion matrix of one evaluation run. A true positive is
// nonsense labeled as nonsense; a true negative is a valid string not
// labeled as nonsense. Skipped counts samples that were below the minimum
// length or otherwise not scorable; they appear in no other cell, so
// TP+FN equals the number of nonsense-labeled samples tested and TN+FP the
// number of valid-labeled samples tested.
type Matrix struct {
	TruePositives  int64 `json:"true_positives"`
	TrueNegatives  int64 `json:"true_negatives"`
	FalsePositives int64 `json:"false_positives"`
	FalseNegatives int64 `json:"false_negatives"`
	Skipped        int64 `json:"skipped"`
}

// Tested returns the number of samples that produced a verdict.
func (m Matrix) Tested() int64 {
	return m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
}

// Accuracy is the fraction of tested samples classified correctly.
func (m Matrix) Accuracy() float64 {
	tested := m.Tested()
	if tested == 0 {
		return 0
	}
	return float64(m.TruePositives+m.TrueNegatives) / float64(tested)
}

// Precision is TP / (TP + FP).
func (m Matrix) Precision() float64 {
	denom := m.TruePositives + m.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

// Recall is TP / (TP + FN).
func (m Matrix) Recall() float64 {
	denom := m.TruePositives + m.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

// F1 is the harmonic mean of precision and recall.
func (m Matrix) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Report is the aggregate outcome of an evaluation run.
type Report struct {
	Matrix
	Elapsed time.Duration `json:"elapsed"`
}

// Harness evaluates a classifier over labeled samples. Each sample is an
// independent pure computation over the shared read-only model, so the run
// is an embarrassingly parallel map across a bounded worker pool.
type Harness struct {
	classifier *nonsense.Classifier
	minLength  int
	workers    int
	logger     *slog.Logger
}

// NewHarness creates a Harness. Samples whose normalized form is shorter
// than minLength are skipped before the classifier ever sees them; workers
// bounds the evaluation goroutines (values below 1 become 1).
func NewHarness(classifier *nonsense.Classifier, minLength, workers int) *Harness {
	if workers < 1 {
		workers = 1
	}
	return &Harness{
		classifier: classifier,
		minLength:  minLength,
		workers:    workers,
		logger:     slog.Default().With("component", "eval-harness"),
	}
}

// Run classifies every sample and aggregates the confusion matrix. Samples
// the engine reports as not scorable are counted as skipped, never as
// negatives. Run returns early only if ctx is cancelled.
func (h *Harness) Run(ctx context.Context, samples []Sample) (Report, error) {
	start := time.Now()

	var tp, tn, fp, fn, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			break
		}
		sample := sample
		g.Go(func() error {
			if len(nonsense.Normalize(sample.Text)) < h.minLength {
				skipped.Add(1)
				return nil
			}
			result, err := h.classifier.Classify(sample.Text)
			if err != nil {
				return err
			}
			if !result.Scorable {
				skipped.Add(1)
				return nil
			}
			switch {
			case sample.Label == LabelNonsense && result.Nonsense:
				tp.Add(1)
			case sample.Label == LabelNonsense && !result.Nonsense:
				fn.Add(1)
			case sample.Label == LabelValid && result.Nonsense:
				fp.Add(1)
			default:
				tn.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		Matrix: Matrix{
			TruePositives:  tp.Load(),
			TrueNegatives:  tn.Load(),
			FalsePositives: fp.Load(),
			FalseNegatives: fn.Load(),
			Skipped:        skipped.Load(),
		},
		Elapsed: time.Since(start),
	}
	h.logger.Info("evaluation finished",
		"samples", len(samples),
		"tested", report.Tested(),
		"skipped", report.Skipped,
		"accuracy", report.Accuracy(),
		"elapsed", report.Elapsed,
	)
	return report, nil
}
