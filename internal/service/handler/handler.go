// Package handler implements the classifier service HTTP API.
package handler

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	"github.com/tokensift/token-screening-platform/internal/service/audit"
	"github.com/tokensift/token-screening-platform/internal/service/cache"
	"github.com/tokensift/token-screening-platform/pkg/logger"
	"github.com/tokensift/token-screening-platform/pkg/metrics"
)

// ModelInfo describes the loaded model for the info endpoint.
type ModelInfo struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	NGramLength int     `json:"ngram_length"`
	NGramCount  int     `json:"ngram_count"`
	Threshold   float64 `json:"threshold"`
}

// ClassifyResponse is the verdict for one input string. Score is surfaced
// only when the caller asks for diagnostics. When Scorable is false the
// input could not be scored and Nonsense is always false.
type ClassifyResponse struct {
	Text     string   `json:"text"`
	Nonsense bool     `json:"nonsense"`
	Scorable bool     `json:"scorable"`
	Score    *float64 `json:"score,omitempty"`
}

// BatchRequest is the payload for batch classification.
type BatchRequest struct {
	Texts []string `json:"texts"`
	Trace bool     `json:"trace"`
}

// BatchResponse carries per-text verdicts in request order.
type BatchResponse struct {
	Results []ClassifyResponse `json:"results"`
}

type Handler struct {
	classifier   *nonsense.Classifier
	cache        *cache.VerdictCache
	collector    *audit.Collector
	metrics      *metrics.Metrics
	info         ModelInfo
	maxBatchSize int
	batchWorkers int
	logger       *slog.Logger
}

func New(classifier *nonsense.Classifier, verdictCache *cache.VerdictCache, collector *audit.Collector, m *metrics.Metrics, info ModelInfo, maxBatchSize int) *Handler {
	if maxBatchSize <= 0 {
		maxBatchSize = 1000
	}
	return &Handler{
		classifier:   classifier,
		cache:        verdictCache,
		collector:    collector,
		metrics:      m,
		info:         info,
		maxBatchSize: maxBatchSize,
		batchWorkers: 8,
		logger:       slog.Default().With("component", "classify-handler"),
	}
}

// Classify handles GET /api/v1/classify?text=...&trace=1.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	text := r.URL.Query().Get("text")
	if text == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'text' is required")
		return
	}
	trace := r.URL.Query().Get("trace") != ""

	resp, err := h.classifyOne(r, text, trace)
	if err != nil {
		log.Error("classification failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ClassifyBatch handles POST /api/v1/classify/batch. Results preserve the
// request order; each text is classified independently on a bounded worker
// pool.
func (h *Handler) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Texts) == 0 {
		h.writeError(w, http.StatusBadRequest, "texts must not be empty")
		return
	}
	if len(req.Texts) > h.maxBatchSize {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds limit %d", len(req.Texts), h.maxBatchSize))
		return
	}

	results := make([]ClassifyResponse, len(req.Texts))
	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(h.batchWorkers)
	for i, text := range req.Texts {
		i, text := i, text
		g.Go(func() error {
			resp, err := h.classifyOne(r, text, req.Trace)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("batch classification failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}
	h.writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

// ModelInfo handles GET /api/v1/model.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.info)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) classifyOne(r *http.Request, text string, trace bool) (ClassifyResponse, error) {
	start := time.Now()
	ctx := r.Context()

	var result nonsense.Result
	var cacheHit bool
	var err error
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, text, func() (nonsense.Result, error) {
			return h.classifier.Classify(text)
		})
	} else {
		result, err = h.classifier.Classify(text)
	}
	if err != nil {
		if h.metrics != nil {
			h.metrics.ClassificationsTotal.WithLabelValues("error").Inc()
		}
		return ClassifyResponse{}, err
	}

	latency := time.Since(start)
	if h.metrics != nil {
		h.metrics.ClassificationsTotal.WithLabelValues(outcome(result)).Inc()
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.ClassifyLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		if result.Scorable {
			h.metrics.NonsenseScores.Observe(result.Score)
		}
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
	if h.collector != nil {
		h.collector.Track(audit.Event{
			TextHash:     fmt.Sprintf("%x", sha256.Sum256([]byte(nonsense.Normalize(text)))),
			Nonsense:     result.Nonsense,
			Score:        result.Score,
			Scorable:     result.Scorable,
			ModelVersion: h.info.Version,
			CacheHit:     cacheHit,
			LatencyUs:    latency.Microseconds(),
			Timestamp:    time.Now().UTC(),
		})
	}

	resp := ClassifyResponse{
		Text:     text,
		Nonsense: result.Nonsense,
		Scorable: result.Scorable,
	}
	if trace && result.Scorable {
		score := result.Score
		resp.Score = &score
	}
	return resp, nil
}

func outcome(result nonsense.Result) string {
	switch {
	case !result.Scorable:
		return "unscorable"
	case result.Nonsense:
		return "nonsense"
	default:
		return "valid"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
