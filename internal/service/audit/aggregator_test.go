package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()

	events := []Event{
		{Nonsense: true, Scorable: true, Score: 9.0, CacheHit: true},
		{Nonsense: false, Scorable: true, Score: 1.0},
		{Nonsense: false, Scorable: true, Score: 2.0},
		{Scorable: false},
	}
	for _, e := range events {
		agg.record(e)
	}

	stats := agg.Stats()
	if stats.TotalClassified != 4 {
		t.Errorf("TotalClassified = %d, want 4", stats.TotalClassified)
	}
	if stats.NonsenseCount != 1 || stats.ValidCount != 2 || stats.UnscorableCount != 1 {
		t.Errorf("verdict counts = %+v", stats)
	}
	if stats.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", stats.CacheHits)
	}
	if want := 4.0; stats.AvgScore != want {
		t.Errorf("AvgScore = %v, want %v", stats.AvgScore, want)
	}
	if stats.P50Score != 2.0 {
		t.Errorf("P50Score = %v, want 2.0", stats.P50Score)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	stats := NewAggregator().Stats()
	if stats.TotalClassified != 0 || stats.AvgScore != 0 {
		t.Errorf("empty aggregator stats = %+v", stats)
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)

	payload, err := json.Marshal(Event{
		TextHash:  "abc123",
		Nonsense:  true,
		Scorable:  true,
		Score:     7.5,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := handle(context.Background(), []byte("nonsense"), payload); err != nil {
		t.Fatal(err)
	}
	if got := agg.Stats().NonsenseCount; got != 1 {
		t.Errorf("NonsenseCount = %d, want 1", got)
	}

	// Malformed payloads are logged and dropped, never retried forever.
	if err := handle(context.Background(), nil, []byte("{not json")); err != nil {
		t.Errorf("malformed payload must not error the consumer: %v", err)
	}
	if got := agg.Stats().TotalClassified; got != 1 {
		t.Errorf("TotalClassified = %d, want 1 after dropping bad payload", got)
	}
}

func TestEventKey(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{Event{Scorable: true, Nonsense: true}, "nonsense"},
		{Event{Scorable: true}, "valid"},
		{Event{}, "unscorable"},
	}
	for _, tc := range cases {
		if got := tc.event.Key(); got != tc.want {
			t.Errorf("Key(%+v) = %q, want %q", tc.event, got, tc.want)
		}
	}
}
