package nonsense

import (
	"strings"
	"testing"
)

func TestNewFrequencyModelValidation(t *testing.T) {
	valid := map[string]NGramStats{
		"abcd": {Weight: 1.5, MaxFreq: 2},
		"bcde": {Weight: 0.7, MaxFreq: 1},
	}

	cases := []struct {
		name         string
		n            int
		stats        map[string]NGramStats
		maxTotalFreq int
		wantErr      string
	}{
		{"valid", 4, valid, 10, ""},
		{"n too small", 1, map[string]NGramStats{"a": {Weight: 1, MaxFreq: 1}}, 1, "at least 2"},
		{"empty stats", 4, map[string]NGramStats{}, 1, "no entries"},
		{"gram length mismatch", 4, map[string]NGramStats{"abc": {Weight: 1, MaxFreq: 1}}, 1, "does not match"},
		{"non-positive max total", 4, valid, 0, "must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model, err := NewFrequencyModel(tc.n, tc.stats, tc.maxTotalFreq)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if model.N() != tc.n || model.Len() != len(tc.stats) || model.MaxTotalFreq() != tc.maxTotalFreq {
					t.Errorf("model accessors mismatch: n=%d len=%d maxTotal=%d", model.N(), model.Len(), model.MaxTotalFreq())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestModelLookup(t *testing.T) {
	model, err := NewFrequencyModel(4, map[string]NGramStats{
		"abcd": {Weight: 2.5, MaxFreq: 3},
		"wxyz": {Weight: 0.4, MaxFreq: 1},
	}, 7)
	if err != nil {
		t.Fatal(err)
	}

	got := model.Lookup("abcd")
	if got.Weight != 2.5 || got.MaxFreq != 3 {
		t.Errorf("Lookup(abcd) = %+v", got)
	}
	if missing := model.Lookup("qqqq"); missing.Weight != 0 || missing.MaxFreq != 0 {
		t.Errorf("absent gram must answer zero value, got %+v", missing)
	}
	if model.MaxWeight() != 2.5 {
		t.Errorf("MaxWeight = %v, want 2.5", model.MaxWeight())
	}
}

func TestModelRange(t *testing.T) {
	stats := map[string]NGramStats{
		"aaaa": {Weight: 1, MaxFreq: 1},
		"bbbb": {Weight: 2, MaxFreq: 2},
		"cccc": {Weight: 3, MaxFreq: 3},
	}
	model, err := NewFrequencyModel(4, stats, 5)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]NGramStats)
	model.Range(func(gram string, st NGramStats) bool {
		seen[gram] = st
		return true
	})
	if len(seen) != len(stats) {
		t.Fatalf("Range visited %d entries, want %d", len(seen), len(stats))
	}
	for gram, want := range stats {
		if seen[gram] != want {
			t.Errorf("Range(%s) = %+v, want %+v", gram, seen[gram], want)
		}
	}

	visited := 0
	model.Range(func(string, NGramStats) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("Range must stop when the callback returns false, visited %d", visited)
	}
}
