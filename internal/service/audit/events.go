// Package audit publishes classification outcomes to Kafka and aggregates
// them back into live verdict statistics. Raw input text never leaves the
// process; events carry only a hash of the normalized form.
package audit

import "time"

// Event is one classification outcome on the audit stream.
type Event struct {
	TextHash     string    `json:"text_hash"`
	Nonsense     bool      `json:"nonsense"`
	Score        float64   `json:"score"`
	Scorable     bool      `json:"scorable"`
	ModelVersion string    `json:"model_version"`
	CacheHit     bool      `json:"cache_hit"`
	LatencyUs    int64     `json:"latency_us"`
	RequestID    string    `json:"request_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Key returns the Kafka partition key for the event. Partitioning by
// verdict keeps per-verdict consumers trivially balanced.
func (e Event) Key() string {
	switch {
	case !e.Scorable:
		return "unscorable"
	case e.Nonsense:
		return "nonsense"
	default:
		return "valid"
	}
}
