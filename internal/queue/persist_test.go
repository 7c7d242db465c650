package queue

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "queue.json")
}

func TestQueue_SnapshotRoundTrip(t *testing.T) {
	path := snapshotPath(t)
	q := New(0, RetryPolicy{MaxRetries: 0})

	// One queued, one claimed, and three terminal jobs
	mustEnqueue(t, q, testItem("waiting", PriorityNormal))
	mustEnqueue(t, q, testItem("running", PriorityCritical))
	mustEnqueue(t, q, testItem("done", PriorityCritical))
	mustEnqueue(t, q, testItem("broken", PriorityCritical))
	mustEnqueue(t, q, testItem("dropped", PriorityBackground))

	mustClaim(t, q) // running
	mustClaim(t, q) // done
	mustClaim(t, q) // broken
	if err := q.Complete("done"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Fail("broken", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if err := q.Cancel("dropped"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if err := q.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	restored := New(0, RetryPolicy{MaxRetries: 0})
	n, err := restored.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 restored jobs, got %d", n)
	}

	// The claimed job's worker is assumed dead: it comes back queued
	stats := restored.Stats()
	if stats.Total != 2 || stats.Queued != 2 {
		t.Errorf("expected 2 queued and nothing else, got %+v", stats)
	}
	running, err := restored.Status("running")
	if err != nil {
		t.Fatalf("restored job missing: %v", err)
	}
	if running.Status != StatusQueued {
		t.Errorf("restored in-progress job status = %s, want %s", running.Status, StatusQueued)
	}
	if running.StartedAt != nil {
		t.Error("restored in-progress job kept its start time")
	}

	// Terminal jobs are not carried over
	for _, id := range []string{"done", "broken", "dropped"} {
		if _, err := restored.Status(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("terminal job %q survived the round trip", id)
		}
	}

	// The restored claimed job is claimable again
	if item := restored.DequeueNext(); item == nil || item.ID != "running" {
		t.Errorf("expected 'running' claimable first, got %+v", item)
	}
}

func TestQueue_LoadPreservesOrdering(t *testing.T) {
	path := snapshotPath(t)
	q := New(0, DefaultRetryPolicy())

	mustEnqueue(t, q, testItem("normal-1", PriorityNormal))
	mustEnqueue(t, q, testItem("normal-2", PriorityNormal))
	mustEnqueue(t, q, testItem("critical", PriorityCritical))

	if err := q.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	restored := New(0, DefaultRetryPolicy())
	if _, err := restored.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	for _, want := range []string{"critical", "normal-1", "normal-2"} {
		item := mustClaim(t, restored)
		if item.ID != want {
			t.Errorf("expected '%s', got '%s'", want, item.ID)
		}
	}
}

func TestQueue_LoadMissingFile(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	n, err := q.LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("expected missing snapshot to be a fresh start, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 restored, got %d", n)
	}
}

func TestQueue_LoadCorruptFile(t *testing.T) {
	path := snapshotPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt snapshot: %v", err)
	}

	q := New(0, DefaultRetryPolicy())
	if _, err := q.LoadFrom(path); err == nil {
		t.Error("expected error for corrupt snapshot, got nil")
	}
}

func TestQueue_LoadSkipsRegisteredIDs(t *testing.T) {
	path := snapshotPath(t)

	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("shared", PriorityLow))
	if err := q.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	target := New(0, DefaultRetryPolicy())
	mustEnqueue(t, target, testItem("shared", PriorityCritical))
	n, err := target.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 restored over a registered id, got %d", n)
	}

	got, _ := target.Status("shared")
	if got.Priority != PriorityCritical {
		t.Errorf("restore clobbered a live job: priority = %s", got.Priority)
	}
}

func TestQueue_SaveReplacesPreviousSnapshot(t *testing.T) {
	path := snapshotPath(t)

	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("first", PriorityNormal))
	if err := q.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	mustEnqueue(t, q, testItem("second", PriorityNormal))
	if err := q.SaveTo(path); err != nil {
		t.Fatalf("second SaveTo failed: %v", err)
	}

	restored := New(0, DefaultRetryPolicy())
	n, err := restored.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 restored from replaced snapshot, got %d", n)
	}
}

func TestQueue_SnapshotKeepsPriorityWireNames(t *testing.T) {
	path := snapshotPath(t)

	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("a", PriorityBackground))
	if err := q.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if want := []byte(`"priority": "background"`); !bytes.Contains(data, want) {
		t.Errorf("snapshot does not encode priority by name:\n%s", data)
	}
	if want := []byte(`"status": "queued"`); !bytes.Contains(data, want) {
		t.Errorf("snapshot does not encode status by name:\n%s", data)
	}
}
