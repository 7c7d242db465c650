package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/press"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
)

// Config configures a Coordinator.
type Config struct {
	Workers          int
	QueueCapacity    int
	ResultBuffer     int
	PollInterval     time.Duration
	SnapshotInterval time.Duration
	CleanupSchedule  string // cron expression; empty disables the sweep
	Retry            *queue.RetryPolicy
	Logger           *slog.Logger
}

// Coordinator owns the processing queue, the worker pool and result
// delivery. It is the single entry point collaborators use to admit pages
// and observe jobs.
type Coordinator struct {
	cfg     Config
	queue   *queue.Queue
	engines *ocr.Registry
	home    *home.Dir
	disp    *dispatcher
	logger  *slog.Logger

	defMu  sync.RWMutex
	defCfg press.ProcessingConfig

	cron *cron.Cron

	workerCancel context.CancelFunc
	dispCancel   context.CancelFunc
	wg           sync.WaitGroup
	dispWG       sync.WaitGroup

	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewCoordinator creates a coordinator. Zero config fields fall back to
// workable defaults; engines must already hold every engine the configs
// passed at enqueue time will name.
func NewCoordinator(cfg Config, engines *ocr.Registry, h *home.Dir) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 30 * time.Second
	}
	policy := queue.DefaultRetryPolicy()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}

	return &Coordinator{
		cfg:     cfg,
		queue:   queue.New(cfg.QueueCapacity, policy),
		engines: engines,
		home:    h,
		disp:    newDispatcher(cfg.ResultBuffer, cfg.Logger),
		logger:  cfg.Logger,
		defCfg:  press.DefaultConfig(),
		stopped: make(chan struct{}),
	}
}

// SetDefaultProcessing replaces the processing config applied to jobs
// admitted without an explicit one. Called on configuration reload; jobs
// already queued keep the config they were admitted with.
func (c *Coordinator) SetDefaultProcessing(cfg press.ProcessingConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid processing config: %w", err)
	}
	c.defMu.Lock()
	c.defCfg = cfg
	c.defMu.Unlock()
	return nil
}

func (c *Coordinator) defaultProcessing() press.ProcessingConfig {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	return c.defCfg
}

// OnResult registers a handler for terminal job outcomes. Register before
// Start; handlers added later miss nothing but results already delivered.
func (c *Coordinator) OnResult(h ResultHandler) {
	c.disp.register(h)
}

// Start restores persisted queue state and launches the worker pool, the
// result dispatcher, the snapshot loop and the cleanup sweep. The
// coordinator shuts down when ctx is canceled or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started {
		return errors.New("coordinator already started")
	}

	restored, err := c.queue.LoadFrom(c.home.QueueStatePath())
	if err != nil {
		c.logger.Warn("restoring queue state", "error", err)
	} else if restored > 0 {
		c.logger.Info("queue state restored", "jobs", restored)
	}

	dispCtx, dispCancel := context.WithCancel(context.Background())
	c.dispCancel = dispCancel
	c.dispWG.Add(1)
	go func() {
		defer c.dispWG.Done()
		c.disp.run(dispCtx)
	}()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	c.workerCancel = workerCancel
	for i := 0; i < c.cfg.Workers; i++ {
		w := &Worker{
			num:          i,
			queue:        c.queue,
			engines:      c.engines,
			home:         c.home,
			disp:         c.disp,
			pollInterval: c.cfg.PollInterval,
			logger:       c.logger,
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			w.run(workerCtx)
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.snapshotLoop(workerCtx)
	}()

	if c.cfg.CleanupSchedule != "" {
		c.cron = cron.New()
		_, err := c.cron.AddFunc(c.cfg.CleanupSchedule, func() {
			if removed := c.queue.Cleanup(); removed > 0 {
				c.logger.Info("terminal jobs swept", "removed", removed)
			}
		})
		if err != nil {
			workerCancel()
			dispCancel()
			return fmt.Errorf("invalid cleanup schedule %q: %w", c.cfg.CleanupSchedule, err)
		}
		c.cron.Start()
	}

	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-c.stopped:
		}
	}()

	c.started = true
	c.logger.Info("coordinator started", "workers", c.cfg.Workers)
	return nil
}

// Stop shuts the coordinator down in order: no new claims, in-flight jobs
// run to their outcome, buffered results are delivered, then the queue
// state is flushed. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("coordinator stopping")
		if c.cron != nil {
			c.cron.Stop()
		}
		if c.workerCancel != nil {
			c.workerCancel()
		}
		c.wg.Wait()
		if c.dispCancel != nil {
			c.dispCancel()
		}
		c.dispWG.Wait()

		if err := c.queue.SaveTo(c.home.QueueStatePath()); err != nil {
			c.logger.Error("saving queue state", "error", err)
		} else {
			c.logger.Info("queue state saved", "path", c.home.QueueStatePath())
		}
		close(c.stopped)
		c.logger.Info("coordinator stopped")
	})
}

// EnqueueRequest describes one page admission. Config and Priority are
// optional; omitted they fall back to the default processing config and
// normal priority.
type EnqueueRequest struct {
	PageID        string
	IssueID       string
	PublicationID string
	SourcePath    string
	Config        *press.ProcessingConfig
	Priority      *queue.Priority
	Metadata      map[string]string
}

// Enqueue admits one page for processing and returns its job id.
func (c *Coordinator) Enqueue(req EnqueueRequest) (string, error) {
	if req.SourcePath == "" {
		return "", errors.New("source path required")
	}

	cfg := c.defaultProcessing()
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid processing config: %w", err)
	}

	prio := queue.PriorityNormal
	if req.Priority != nil {
		prio = *req.Priority
		if !prio.IsValid() {
			return "", fmt.Errorf("invalid priority %d", prio)
		}
	}

	jobID := uuid.New().String()
	item := queue.NewItem(jobID, req.PageID, req.SourcePath, cfg, prio)
	item.IssueID = req.IssueID
	item.PublicationID = req.PublicationID
	item.Metadata = req.Metadata

	if err := c.queue.Enqueue(item); err != nil {
		return "", err
	}
	c.logger.Info("job enqueued",
		"job_id", jobID,
		"page_id", req.PageID,
		"priority", prio.String(),
	)
	return jobID, nil
}

// EnqueueIssue admits every page of an issue, in page order. Pages with a
// live job already in the queue are skipped, so submitting an issue twice
// does not double its backlog. Returns the job ids actually admitted.
func (c *Coordinator) EnqueueIssue(issue *press.Issue, cfg *press.ProcessingConfig, priority *queue.Priority) ([]string, error) {
	live := make(map[string]bool)
	for _, item := range c.queue.List() {
		if item.PageID != "" && !item.Status.IsTerminal() {
			live[item.PageID] = true
		}
	}

	ids := make([]string, 0, len(issue.Pages))
	for i := range issue.Pages {
		page := &issue.Pages[i]
		if page.ImagePath == "" {
			continue
		}
		if live[page.ID] {
			c.logger.Warn("page already queued", "page_id", page.ID, "issue_id", issue.ID)
			continue
		}
		id, err := c.Enqueue(EnqueueRequest{
			PageID:        page.ID,
			IssueID:       issue.ID,
			PublicationID: issue.PublicationID,
			SourcePath:    page.ImagePath,
			Config:        cfg,
			Priority:      priority,
		})
		if err != nil {
			return ids, fmt.Errorf("enqueue page %d of issue %s: %w", page.Number, issue.ID, err)
		}
		ids = append(ids, id)
		live[page.ID] = true
	}
	return ids, nil
}

// EnqueuePublication admits every page of every issue of a publication.
func (c *Coordinator) EnqueuePublication(pub *press.Publication, cfg *press.ProcessingConfig, priority *queue.Priority) ([]string, error) {
	var ids []string
	for i := range pub.Issues {
		issueIDs, err := c.EnqueueIssue(&pub.Issues[i], cfg, priority)
		ids = append(ids, issueIDs...)
		if err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// Cancel cancels a job that has not been claimed yet.
func (c *Coordinator) Cancel(id string) error {
	if err := c.queue.Cancel(id); err != nil {
		return err
	}
	c.logger.Info("job canceled", "job_id", id)
	return nil
}

// Status returns a copy of a job's current state.
func (c *Coordinator) Status(id string) (*queue.Item, error) {
	return c.queue.Status(id)
}

// List returns copies of every registered job, oldest first.
func (c *Coordinator) List() []*queue.Item {
	return c.queue.List()
}

// QueueStats returns point-in-time per-status counts.
func (c *Coordinator) QueueStats() queue.Stats {
	return c.queue.Stats()
}

// Cleanup evicts terminal jobs from the registry and returns how many.
func (c *Coordinator) Cleanup() int {
	return c.queue.Cleanup()
}

func (c *Coordinator) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.SaveTo(c.home.QueueStatePath()); err != nil {
				c.logger.Error("saving queue state", "error", err)
			}
		}
	}
}
