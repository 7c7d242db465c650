package spool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/pipeline"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
)

type fakeEnqueuer struct {
	mu   sync.Mutex
	reqs []pipeline.EnqueueRequest
	fail bool
}

func (f *fakeEnqueuer) Enqueue(req pipeline.EnqueueRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.fail {
		return "", errors.New("queue is at capacity")
	}
	return "job-1", nil
}

func (f *fakeEnqueuer) requests() []pipeline.EnqueueRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pipeline.EnqueueRequest, len(f.reqs))
	copy(out, f.reqs)
	return out
}

func (f *fakeEnqueuer) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func newTestWatcher(t *testing.T) (*Watcher, *fakeEnqueuer, *home.Dir) {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	jobs := &fakeEnqueuer{}
	w := New(h, jobs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.settlePoll = 20 * time.Millisecond
	w.settleMax = 2 * time.Second
	w.resweep = 100 * time.Millisecond
	return w, jobs, h
}

func startWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel
}

func dropFile(t *testing.T, h *home.Dir, name string) string {
	t.Helper()
	path := filepath.Join(h.SpoolPath(), name)
	if err := os.WriteFile(path, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("writing spool file: %v", err)
	}
	return path
}

func waitForRequests(t *testing.T, jobs *fakeEnqueuer, want int) []pipeline.EnqueueRequest {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		if reqs := jobs.requests(); len(reqs) >= want {
			return reqs
		}
		select {
		case <-deadline:
			t.Fatalf("saw %d admissions, want %d", len(jobs.requests()), want)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// TestWatcher_AdmitsDroppedImage tests event-driven admission of a file
// dropped while the watcher runs.
func TestWatcher_AdmitsDroppedImage(t *testing.T) {
	w, jobs, h := newTestWatcher(t)
	startWatcher(t, w)

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	dropped := dropFile(t, h, "gazette-p004.png")
	reqs := waitForRequests(t, jobs, 1)

	req := reqs[0]
	if req.PageID != "gazette-p004" {
		t.Errorf("page id = %q, want gazette-p004", req.PageID)
	}
	if req.Priority == nil || *req.Priority != queue.PriorityBackground {
		t.Errorf("priority = %v, want background", req.Priority)
	}
	if filepath.Dir(req.SourcePath) != h.SpoolAcceptedPath() {
		t.Errorf("source path = %s, want a file under accepted/", req.SourcePath)
	}
	if req.Metadata["source"] != "spool" {
		t.Errorf("metadata = %v, want source=spool", req.Metadata)
	}

	if _, err := os.Stat(req.SourcePath); err != nil {
		t.Errorf("admitted file missing: %v", err)
	}
	if _, err := os.Stat(dropped); !os.IsNotExist(err) {
		t.Error("admitted file still in the inbox")
	}
}

// TestWatcher_SweepsExistingFiles tests that drops made before startup are
// admitted by the initial sweep.
func TestWatcher_SweepsExistingFiles(t *testing.T) {
	w, jobs, h := newTestWatcher(t)

	dropFile(t, h, "early-1.png")
	dropFile(t, h, "early-2.jpg")

	startWatcher(t, w)

	reqs := waitForRequests(t, jobs, 2)
	seen := map[string]bool{}
	for _, r := range reqs {
		seen[r.PageID] = true
	}
	if !seen["early-1"] || !seen["early-2"] {
		t.Errorf("admitted pages = %v, want early-1 and early-2", seen)
	}
}

// TestWatcher_IgnoresNonImages tests that notes and dotfiles are left alone.
func TestWatcher_IgnoresNonImages(t *testing.T) {
	w, jobs, h := newTestWatcher(t)
	startWatcher(t, w)

	time.Sleep(100 * time.Millisecond)
	note := dropFile(t, h, "README.txt")
	partial := dropFile(t, h, ".partial-upload.png")

	// Long enough for a wrong admission to have happened.
	time.Sleep(500 * time.Millisecond)

	if got := jobs.requests(); len(got) != 0 {
		t.Errorf("admitted %d files, want 0: %+v", len(got), got)
	}
	for _, p := range []string{note, partial} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s moved out of the spool: %v", filepath.Base(p), err)
		}
	}
}

// TestWatcher_RetriesAfterQueueRejection tests that a rejected file returns
// to the inbox and is admitted by a later sweep once the queue has room.
func TestWatcher_RetriesAfterQueueRejection(t *testing.T) {
	w, jobs, h := newTestWatcher(t)
	jobs.setFail(true)
	startWatcher(t, w)

	time.Sleep(100 * time.Millisecond)
	dropped := dropFile(t, h, "backlog.png")

	waitForRequests(t, jobs, 1)

	// Rejected file must be back in the inbox.
	deadline := time.After(5 * time.Second)
	for {
		if _, err := os.Stat(dropped); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("rejected file not returned to the spool")
		case <-time.After(20 * time.Millisecond):
		}
	}

	jobs.setFail(false)

	// A later sweep should admit it for good: accepted/ holds the file
	// and the inbox is empty.
	accepted := filepath.Join(h.SpoolAcceptedPath(), "backlog.png")
	deadline = time.After(10 * time.Second)
	for {
		_, accErr := os.Stat(accepted)
		_, inboxErr := os.Stat(dropped)
		if accErr == nil && os.IsNotExist(inboxErr) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("file never admitted after the queue freed up")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestIsPageImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"page.png", true},
		{"page.PNG", true},
		{"page.jpeg", true},
		{"page.tif", true},
		{"page.webp", true},
		{"notes.txt", false},
		{"issue.pdf", false},
		{".hidden.png", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isPageImage(tt.path); got != tt.want {
				t.Errorf("isPageImage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
