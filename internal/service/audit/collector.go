package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tokensift/token-screening-platform/pkg/kafka"
	"github.com/tokensift/token-screening-platform/pkg/resilience"
)

// Collector accumulates audit events in memory and flushes them to Kafka
// either when the batch reaches a configurable size or after a time
// interval. Publishing is best-effort and never blocks classification.
type Collector struct {
	producer      *kafka.Producer
	breaker       *resilience.CircuitBreaker
	mu            sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector that flushes when the buffer reaches
// batchSize events or after flushInterval, whichever comes first.
func NewCollector(producer *kafka.Producer, batchSize int, flushInterval time.Duration) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		producer:      producer,
		breaker:       resilience.NewCircuitBreaker("audit-kafka", resilience.CircuitBreakerConfig{}),
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "audit-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the background flush loop, which runs until ctx is
// cancelled.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				// Final flush with a short deadline.
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("audit collector started",
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track buffers one event. If the buffer reaches batchSize an immediate
// flush is triggered off the caller's goroutine.
func (c *Collector) Track(event Event) {
	c.mu.Lock()
	c.buffer = append(c.buffer, kafka.Event{Key: event.Key(), Value: event})
	shouldFlush := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if shouldFlush {
		go c.flush(context.Background())
	}
}

// BufferLen returns the current number of buffered events.
func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Close waits for the background flush loop to finish.
func (c *Collector) Close() {
	<-c.done
}

func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	err := c.breaker.Execute(func() error {
		return c.producer.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.logger.Error("audit flush failed",
			"batch_size", len(batch),
			"breaker_state", c.breaker.GetState().String(),
			"error", err,
		)
		// Re-queue failed events (best-effort, may drop on repeated failure).
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if len(c.buffer) > c.batchSize*3 {
			dropped := len(c.buffer) - c.batchSize*3
			c.buffer = c.buffer[:c.batchSize*3]
			c.logger.Warn("buffer overflow, events dropped", "dropped", dropped)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("audit batch flushed", "count", len(batch))
}
