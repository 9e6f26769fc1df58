package audit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tokensift/token-screening-platform/pkg/kafka"
)

// AggregatedStats summarises the audit stream since the aggregator started.
type AggregatedStats struct {
	TotalClassified int64   `json:"total_classified"`
	NonsenseCount   int64   `json:"nonsense_count"`
	ValidCount      int64   `json:"valid_count"`
	UnscorableCount int64   `json:"unscorable_count"`
	CacheHits       int64   `json:"cache_hits"`
	AvgScore        float64 `json:"avg_score"`
	P50Score        float64 `json:"p50_score"`
	P95Score        float64 `json:"p95_score"`
	PerMinute       float64 `json:"classifications_per_minute"`
}

// Aggregator consumes audit events from Kafka and keeps running verdict
// statistics for the stats endpoint.
type Aggregator struct {
	mu         sync.RWMutex
	total      atomic.Int64
	nonsense   atomic.Int64
	valid      atomic.Int64
	unscorable atomic.Int64
	cacheHits  atomic.Int64
	scores     []float64
	startTime  time.Time
	logger     *slog.Logger
}

// NewAggregator creates an empty Aggregator. Feed it by registering
// HandleEvent as a kafka consumer handler.
func NewAggregator() *Aggregator {
	return &Aggregator{
		scores:    make([]float64, 0, 10000),
		startTime: time.Now(),
		logger:    slog.Default().With("component", "audit-aggregator"),
	}
}

// HandleEvent returns the kafka handler that folds events into agg.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			agg.logger.Error("failed to decode audit event", "error", err)
			return nil
		}
		agg.record(event)
		return nil
	}
}

func (a *Aggregator) record(event Event) {
	a.total.Add(1)
	switch {
	case !event.Scorable:
		a.unscorable.Add(1)
	case event.Nonsense:
		a.nonsense.Add(1)
	default:
		a.valid.Add(1)
	}
	if event.CacheHit {
		a.cacheHits.Add(1)
	}

	if event.Scorable {
		a.mu.Lock()
		a.scores = append(a.scores, event.Score)
		// Keep the window bounded; old scores age out of the percentiles.
		if len(a.scores) > 100000 {
			a.scores = a.scores[len(a.scores)-50000:]
		}
		a.mu.Unlock()
	}
}

// Stats returns a snapshot of the aggregated statistics.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalClassified: a.total.Load(),
		NonsenseCount:   a.nonsense.Load(),
		ValidCount:      a.valid.Load(),
		UnscorableCount: a.unscorable.Load(),
		CacheHits:       a.cacheHits.Load(),
	}
	if len(a.scores) > 0 {
		sorted := make([]float64, len(a.scores))
		copy(sorted, a.scores)
		sort.Float64s(sorted)
		var sum float64
		for _, s := range sorted {
			sum += s
		}
		stats.AvgScore = sum / float64(len(sorted))
		stats.P50Score = sorted[len(sorted)/2]
		stats.P95Score = sorted[len(sorted)*95/100]
	}
	if minutes := time.Since(a.startTime).Minutes(); minutes > 0 {
		stats.PerMinute = float64(stats.TotalClassified) / minutes
	}
	return stats
}
