package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
)

// Worker claims jobs from the queue and runs them through the page
// pipeline. It blocks only on the recognition call and file I/O; an empty
// queue parks it on the wake signal with a bounded poll fallback.
type Worker struct {
	num          int
	queue        *queue.Queue
	engines      *ocr.Registry
	home         *home.Dir
	disp         *dispatcher
	pollInterval time.Duration
	logger       *slog.Logger
}

func (w *Worker) run(ctx context.Context) {
	logger := w.logger.With("worker_num", w.num)
	logger.Debug("worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopping")
			return
		default:
		}

		item := w.queue.DequeueNext()
		if item == nil {
			select {
			case <-ctx.Done():
				logger.Debug("worker stopping")
				return
			case <-w.queue.Wake():
			case <-ticker.C:
			}
			continue
		}

		w.handle(ctx, item)
	}
}

// handle processes one claimed item and reports its outcome to the queue.
// Results are delivered to handlers only when the job goes terminal; a
// retry requeue delivers nothing.
func (w *Worker) handle(ctx context.Context, item *queue.Item) {
	logger := w.logger.With("worker_num", w.num, "job_id", item.ID, "page_id", item.PageID)
	logger.Info("processing page", "priority", item.Priority.String(), "attempt", item.Attempts+1)

	res := w.process(ctx, item)

	if res.Success {
		if err := w.queue.Complete(item.ID); err != nil {
			logger.Error("recording completion", "error", err)
		}
		logger.Info("page processed",
			"regions", len(res.Regions),
			"articles", len(res.Articles),
			"confidence", res.Confidence,
			"elapsed", res.Elapsed,
		)
		w.disp.submit(res)
		return
	}

	logger.Warn("page processing failed", "error", res.Err, "elapsed", res.Elapsed)
	if err := w.queue.Fail(item.ID, res.Err); err != nil {
		logger.Error("recording failure", "error", err)
		w.disp.submit(res)
		return
	}

	if after, err := w.queue.Status(item.ID); err == nil && after.Status == queue.StatusQueued {
		logger.Info("job requeued for retry",
			"attempt", after.Attempts,
			"priority", after.Priority.String(),
		)
		return
	}
	w.disp.submit(res)
}

// process runs the pipeline stages for one item and persists artifacts on
// success. Panics inside a stage surface as a failed job, not a dead
// worker.
func (w *Worker) process(ctx context.Context, item *queue.Item) *Result {
	start := time.Now()
	res, err := ProcessPage(ctx, w.engines, item.Config, item.SourcePath)
	if err != nil {
		return &Result{
			JobID:   item.ID,
			PageID:  item.PageID,
			IssueID: item.IssueID,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}

	res.JobID = item.ID
	res.PageID = item.PageID
	res.IssueID = item.IssueID
	for i := range res.Articles {
		res.Articles[i].PageID = item.PageID
		res.Articles[i].IssueID = item.IssueID
	}

	if err := WriteArtifacts(w.home, item.ID, res); err != nil {
		res.Success = false
		res.Err = err
		return res
	}
	return res
}
