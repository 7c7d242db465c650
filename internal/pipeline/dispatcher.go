package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	deliveryAttempts = 3
	deliveryDelay    = 100 * time.Millisecond
)

// dispatcher fans terminal results out to registered handlers from a
// buffered channel, so slow handlers never stall workers. Failed handler
// calls are retried a few times, then the delivery is logged and dropped.
type dispatcher struct {
	mu       sync.RWMutex
	handlers []ResultHandler

	ch     chan *Result
	logger *slog.Logger
}

func newDispatcher(buffer int, logger *slog.Logger) *dispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	return &dispatcher{
		ch:     make(chan *Result, buffer),
		logger: logger,
	}
}

func (d *dispatcher) register(h ResultHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// submit queues a result for delivery without blocking the caller.
func (d *dispatcher) submit(res *Result) {
	select {
	case d.ch <- res:
	default:
		d.logger.Warn("result buffer full, dropping delivery", "job_id", res.JobID)
	}
}

func (d *dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Deliver what is already buffered so results of jobs that
			// finished during shutdown still reach handlers.
			for {
				select {
				case res := <-d.ch:
					d.deliver(context.WithoutCancel(ctx), res)
				default:
					return
				}
			}
		case res := <-d.ch:
			d.deliver(ctx, res)
		}
	}
}

func (d *dispatcher) deliver(ctx context.Context, res *Result) {
	d.mu.RLock()
	handlers := make([]ResultHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		err := retry.Do(
			func() error { return h(ctx, res) },
			retry.Context(ctx),
			retry.Attempts(deliveryAttempts),
			retry.Delay(deliveryDelay),
		)
		if err != nil {
			d.logger.Error("result delivery failed",
				"job_id", res.JobID,
				"page_id", res.PageID,
				"error", err,
			)
		}
	}
}
