package eval

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/trainer"
)

func harnessClassifier(t *testing.T) *nonsense.Classifier {
	t.Helper()
	corpus := "university\nuniverse\nconversation\nquestion\nrequest\ninformation\nformation\nnational\ncomputer\ncompany"
	model, err := trainer.Train(4, strings.NewReader(corpus))
	if err != nil {
		t.Fatal(err)
	}
	scorer := nonsense.NewScorer(model, 0)
	cal, err := trainer.Calibrate(scorer,
		[]string{"university", "question", "information", "national"},
		[]string{"xqjklqjklqjkl", "qqqqqqqqqq", "zxcvzxcvzxcv"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return nonsense.NewClassifier(scorer, cal.Threshold)
}

func TestHarnessRun(t *testing.T) {
	classifier := harnessClassifier(t)
	harness := NewHarness(classifier, 6, 4)

	samples := []Sample{
		{LabelValid, "university"},
		{LabelValid, "conversation"},
		{LabelValid, "information"},
		{LabelNonsense, "xqjklqjklqjkl"},
		{LabelNonsense, "aaaaaaaaaa"},
		{LabelValid, "ok"},         // below minimum length
		{LabelNonsense, "zx"},      // below minimum length
		{LabelValid, "12345-6789"}, // no letters at all
	}

	report, err := harness.Run(context.Background(), samples)
	if err != nil {
		t.Fatal(err)
	}

	if report.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", report.Skipped)
	}

	// Per-label closure: every tested nonsense sample lands in TP or FN,
	// every tested valid sample in TN or FP.
	if got := report.TruePositives + report.FalseNegatives; got != 2 {
		t.Errorf("TP+FN = %d, want 2 tested nonsense samples", got)
	}
	if got := report.TrueNegatives + report.FalsePositives; got != 3 {
		t.Errorf("TN+FP = %d, want 3 tested valid samples", got)
	}
	if got := report.Tested() + report.Skipped; got != int64(len(samples)) {
		t.Errorf("tested+skipped = %d, want %d", got, len(samples))
	}

	// The calibration sets cover these samples, so the run is clean.
	if report.Accuracy() != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0 (matrix %+v)", report.Accuracy(), report.Matrix)
	}
	if report.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}
}

func TestHarnessRunCancelled(t *testing.T) {
	classifier := harnessClassifier(t)
	harness := NewHarness(classifier, 6, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := harness.Run(ctx, []Sample{
		{LabelValid, "university"},
		{LabelNonsense, "xqjklqjklqjkl"},
	})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if report.Tested() != 0 || report.Skipped != 0 {
		t.Errorf("no sample should run after cancellation, got %+v", report.Matrix)
	}
}

func TestMatrixMetrics(t *testing.T) {
	m := Matrix{TruePositives: 8, TrueNegatives: 85, FalsePositives: 5, FalseNegatives: 2}

	if got := m.Tested(); got != 100 {
		t.Errorf("Tested = %d, want 100", got)
	}
	if got := m.Accuracy(); got != 0.93 {
		t.Errorf("Accuracy = %v, want 0.93", got)
	}
	if got := m.Precision(); math.Abs(got-8.0/13.0) > 1e-12 {
		t.Errorf("Precision = %v, want %v", got, 8.0/13.0)
	}
	if got := m.Recall(); got != 0.8 {
		t.Errorf("Recall = %v, want 0.8", got)
	}
	p, r := m.Precision(), m.Recall()
	if got := m.F1(); math.Abs(got-2*p*r/(p+r)) > 1e-12 {
		t.Errorf("F1 = %v", got)
	}
}

func TestMatrixZeroDivision(t *testing.T) {
	var m Matrix
	if m.Accuracy() != 0 || m.Precision() != 0 || m.Recall() != 0 || m.F1() != 0 {
		t.Errorf("empty matrix must report zero metrics, got %+v", m)
	}
}
