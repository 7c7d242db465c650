// Package spool watches the home spool directory and admits page images
// dropped there as background-priority jobs. It is the delivery channel for
// collaborator downloaders: they write finished scans into spool/ and the
// pipeline picks them up without any API call.
package spool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/pipeline"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
)

// Enqueuer admits one page job. *pipeline.Coordinator satisfies it.
type Enqueuer interface {
	Enqueue(req pipeline.EnqueueRequest) (string, error)
}

// pageImageExts lists the file extensions admitted from the spool. It
// mirrors the decoders the preprocessor registers.
var pageImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// Watcher admits spool drops. Files are moved into spool/accepted before
// enqueueing, so the watched directory only ever holds work not yet
// admitted and a restart sweep cannot double-admit anything.
type Watcher struct {
	home   *home.Dir
	jobs   Enqueuer
	logger *slog.Logger

	settlePoll time.Duration // between file size checks
	settleMax  time.Duration // give up on a file that keeps growing
	resweep    time.Duration // periodic rescan, also retries deferred files

	mu       sync.Mutex
	inflight map[string]bool
	deferred map[string]bool

	wg sync.WaitGroup
}

// New creates a spool watcher admitting through jobs.
func New(h *home.Dir, jobs Enqueuer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		home:       h,
		jobs:       jobs,
		logger:     logger.With("component", "spool"),
		settlePoll: 200 * time.Millisecond,
		settleMax:  30 * time.Second,
		resweep:    time.Minute,
		inflight:   make(map[string]bool),
		deferred:   make(map[string]bool),
	}
}

// Run watches the spool until ctx is canceled. Files already present are
// admitted immediately; afterwards admission is event-driven with a
// periodic sweep as backstop.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.home.SpoolAcceptedPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create accepted directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create spool watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.home.SpoolPath()); err != nil {
		return fmt.Errorf("failed to watch spool directory: %w", err)
	}

	w.logger.Info("spool watcher started", "dir", w.home.SpoolPath())
	w.sweep(ctx)

	ticker := time.NewTicker(w.resweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("spool watcher stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				w.maybeAdmit(ctx, ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("spool watch error", "error", err)
		case <-ticker.C:
			w.clearDeferred()
			w.sweep(ctx)
		}
	}
}

// sweep admits every eligible file already sitting in the spool.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.home.SpoolPath())
	if err != nil {
		w.logger.Warn("reading spool directory", "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.maybeAdmit(ctx, filepath.Join(w.home.SpoolPath(), e.Name()))
	}
}

// maybeAdmit starts an admission for path unless it is not a page image,
// already being admitted, or deferred after a queue rejection.
func (w *Watcher) maybeAdmit(ctx context.Context, path string) {
	if !isPageImage(path) {
		return
	}

	w.mu.Lock()
	if w.inflight[path] || w.deferred[path] {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()
		w.admit(ctx, path)
	}()
}

// admit waits for the file to stop changing, moves it out of the inbox and
// enqueues it. A queue rejection moves the file back and defers it until
// the next periodic sweep.
func (w *Watcher) admit(ctx context.Context, path string) {
	if err := w.waitForSettle(ctx, path); err != nil {
		w.logger.Debug("spool file not settled", "file", filepath.Base(path), "error", err)
		return
	}

	dst := filepath.Join(w.home.SpoolAcceptedPath(), filepath.Base(path))
	if _, err := os.Stat(dst); err == nil {
		// Same file name dropped twice; keep both.
		dst = filepath.Join(w.home.SpoolAcceptedPath(), uuid.New().String()[:8]+"-"+filepath.Base(path))
	}
	if err := os.Rename(path, dst); err != nil {
		w.logger.Warn("moving spool file", "file", filepath.Base(path), "error", err)
		return
	}

	prio := queue.PriorityBackground
	id, err := w.jobs.Enqueue(pipeline.EnqueueRequest{
		PageID:     pageID(path),
		SourcePath: dst,
		Priority:   &prio,
		Metadata:   map[string]string{"source": "spool"},
	})
	if err != nil {
		w.logger.Warn("queue rejected spool admission", "file", filepath.Base(path), "error", err)
		if renameErr := os.Rename(dst, path); renameErr != nil {
			w.logger.Error("returning rejected spool file", "file", filepath.Base(path), "error", renameErr)
			return
		}
		w.mu.Lock()
		w.deferred[path] = true
		w.mu.Unlock()
		return
	}

	w.logger.Info("spool page admitted", "job_id", id, "file", filepath.Base(path))
}

// waitForSettle returns once the file size holds still between two checks,
// so half-written drops are not admitted.
func (w *Watcher) waitForSettle(ctx context.Context, path string) error {
	deadline := time.Now().Add(w.settleMax)
	var lastSize int64 = -1
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		size := info.Size()
		if size > 0 && size == lastSize {
			return nil
		}
		lastSize = size

		if time.Now().After(deadline) {
			return fmt.Errorf("file still changing after %s", w.settleMax)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settlePoll):
		}
	}
}

func (w *Watcher) clearDeferred() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.deferred)
}

// isPageImage reports whether path names an admissible page image. Hidden
// files are skipped; uploaders drop dotfiles while transfers run.
func isPageImage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return pageImageExts[strings.ToLower(filepath.Ext(base))]
}

// pageID derives a page identifier from the dropped file name.
func pageID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
