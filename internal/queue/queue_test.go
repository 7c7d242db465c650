package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// testItem builds a queued item with a throwaway page and source path.
func testItem(id string, priority Priority) *Item {
	return NewItem(id, "page-"+id, "/tmp/"+id+".png", press.DefaultConfig(), priority)
}

// mustEnqueue is a test helper that fails the test if Enqueue errors.
func mustEnqueue(t *testing.T, q *Queue, item *Item) {
	t.Helper()
	if err := q.Enqueue(item); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
}

// mustClaim is a test helper that fails the test if nothing is claimable.
func mustClaim(t *testing.T, q *Queue) *Item {
	t.Helper()
	item := q.DequeueNext()
	if item == nil {
		t.Fatal("DequeueNext returned nil, expected a claimable item")
	}
	return item
}

func TestQueue_BasicOrdering(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	// Enqueue least urgent first
	mustEnqueue(t, q, testItem("background", PriorityBackground))
	mustEnqueue(t, q, testItem("low", PriorityLow))
	mustEnqueue(t, q, testItem("normal", PriorityNormal))
	mustEnqueue(t, q, testItem("high", PriorityHigh))
	mustEnqueue(t, q, testItem("critical", PriorityCritical))

	// Dequeue should return most urgent first
	for _, want := range []string{"critical", "high", "normal", "low", "background"} {
		item := mustClaim(t, q)
		if item.ID != want {
			t.Errorf("expected '%s', got '%s'", want, item.ID)
		}
	}

	if item := q.DequeueNext(); item != nil {
		t.Errorf("expected empty queue, got %+v", item)
	}
}

func TestQueue_FIFOWithinPriority(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	mustEnqueue(t, q, testItem("first", PriorityNormal))
	mustEnqueue(t, q, testItem("second", PriorityNormal))
	mustEnqueue(t, q, testItem("third", PriorityNormal))

	for _, want := range []string{"first", "second", "third"} {
		item := mustClaim(t, q)
		if item.ID != want {
			t.Errorf("expected '%s', got '%s'", want, item.ID)
		}
	}
}

func TestQueue_CriticalJumpsQueue(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	// Two normal pages already queued, then an urgent reprocess arrives
	mustEnqueue(t, q, testItem("normal-1", PriorityNormal))
	mustEnqueue(t, q, testItem("critical", PriorityCritical))
	mustEnqueue(t, q, testItem("normal-2", PriorityNormal))

	for _, want := range []string{"critical", "normal-1", "normal-2"} {
		item := mustClaim(t, q)
		if item.ID != want {
			t.Errorf("expected '%s', got '%s'", want, item.ID)
		}
	}
}

func TestQueue_EnqueueNil(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	if err := q.Enqueue(nil); !errors.Is(err, ErrNilItem) {
		t.Errorf("expected ErrNilItem, got %v", err)
	}

	// Queue should still be usable after the error
	mustEnqueue(t, q, testItem("a", PriorityNormal))
	if q.Stats().Queued != 1 {
		t.Errorf("expected 1 queued item, got %d", q.Stats().Queued)
	}
}

func TestQueue_DuplicateID(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	mustEnqueue(t, q, testItem("dup", PriorityNormal))
	if err := q.Enqueue(testItem("dup", PriorityHigh)); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("expected ErrDuplicateJob, got %v", err)
	}

	// Terminal items still hold their id until cleanup
	claimed := mustClaim(t, q)
	if err := q.Complete(claimed.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Enqueue(testItem("dup", PriorityNormal)); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("expected ErrDuplicateJob for completed id, got %v", err)
	}

	// After cleanup the id is free again
	q.Cleanup()
	mustEnqueue(t, q, testItem("dup", PriorityNormal))
}

func TestQueue_CapacityLimit(t *testing.T) {
	q := New(2, DefaultRetryPolicy())

	mustEnqueue(t, q, testItem("a", PriorityNormal))
	mustEnqueue(t, q, testItem("b", PriorityNormal))

	if err := q.Enqueue(testItem("c", PriorityNormal)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	// A claimed job still occupies its slot
	claimed := mustClaim(t, q)
	if err := q.Enqueue(testItem("c", PriorityNormal)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull while job in progress, got %v", err)
	}

	// A terminal job frees its slot
	if err := q.Complete(claimed.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	mustEnqueue(t, q, testItem("c", PriorityNormal))
}

func TestQueue_DequeueMarksInProgress(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("a", PriorityNormal))

	claimed := mustClaim(t, q)
	if claimed.Status != StatusInProgress {
		t.Errorf("claimed status = %s, want %s", claimed.Status, StatusInProgress)
	}
	if claimed.StartedAt == nil {
		t.Error("claimed item has no start time")
	}

	// The registry view agrees
	got, err := q.Status("a")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Errorf("registry status = %s, want %s", got.Status, StatusInProgress)
	}
}

func TestQueue_StatusReturnsCopy(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	item := testItem("a", PriorityNormal)
	item.Metadata = map[string]string{"origin": "spool"}
	mustEnqueue(t, q, item)

	got, err := q.Status("a")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	got.Status = StatusFailed
	got.Metadata["origin"] = "mutated"

	again, _ := q.Status("a")
	if again.Status != StatusQueued {
		t.Errorf("mutating a status copy changed the registry: %s", again.Status)
	}
	if again.Metadata["origin"] != "spool" {
		t.Errorf("mutating a metadata copy changed the registry: %s", again.Metadata["origin"])
	}
}

func TestQueue_Complete(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("a", PriorityNormal))

	// Completing a job nobody claimed is rejected
	if err := q.Complete("a"); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("expected ErrNotInProgress, got %v", err)
	}
	if err := q.Complete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	mustClaim(t, q)
	if err := q.Complete("a"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, _ := q.Status("a")
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", got.Status, StatusCompleted)
	}
	if got.CompletedAt == nil {
		t.Error("completed item has no completion time")
	}
}

func TestQueue_CancelOnlyFromQueued(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("queued", PriorityNormal))
	mustEnqueue(t, q, testItem("claimed", PriorityCritical))

	// The critical job is claimed first and cannot be canceled mid-flight
	mustClaim(t, q)
	if err := q.Cancel("claimed"); !errors.Is(err, ErrNotCancelable) {
		t.Errorf("expected ErrNotCancelable for in-progress job, got %v", err)
	}

	if err := q.Cancel("queued"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	got, _ := q.Status("queued")
	if got.Status != StatusCanceled {
		t.Errorf("status = %s, want %s", got.Status, StatusCanceled)
	}

	// Canceling twice or canceling terminal jobs is rejected
	if err := q.Cancel("queued"); !errors.Is(err, ErrNotCancelable) {
		t.Errorf("expected ErrNotCancelable for canceled job, got %v", err)
	}
	if err := q.Cancel("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueue_CanceledSkippedAtDequeue(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("a", PriorityNormal))
	mustEnqueue(t, q, testItem("b", PriorityNormal))

	if err := q.Cancel("a"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// The stale ordering entry for "a" must be skipped
	item := mustClaim(t, q)
	if item.ID != "b" {
		t.Errorf("expected 'b', got '%s'", item.ID)
	}
	if extra := q.DequeueNext(); extra != nil {
		t.Errorf("expected empty queue, got %+v", extra)
	}
}

func TestQueue_FailRequeuesWithPromotion(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 2, PromoteOnRetry: true})
	mustEnqueue(t, q, testItem("flaky", PriorityNormal))

	// First failure: requeued one step more urgent
	mustClaim(t, q)
	if err := q.Fail("flaky", fmt.Errorf("ocr crashed")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, _ := q.Status("flaky")
	if got.Status != StatusQueued {
		t.Errorf("status after first failure = %s, want %s", got.Status, StatusQueued)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("priority after first failure = %s, want %s", got.Priority, PriorityHigh)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
	if got.Error != "ocr crashed" {
		t.Errorf("error = %q, want %q", got.Error, "ocr crashed")
	}
	if got.StartedAt != nil {
		t.Error("requeued item should have no start time")
	}

	// Second failure: promoted again
	mustClaim(t, q)
	if err := q.Fail("flaky", fmt.Errorf("ocr crashed again")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, _ = q.Status("flaky")
	if got.Priority != PriorityCritical {
		t.Errorf("priority after second failure = %s, want %s", got.Priority, PriorityCritical)
	}

	// Third failure: retries exhausted, terminal
	mustClaim(t, q)
	if err := q.Fail("flaky", fmt.Errorf("gave up")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, _ = q.Status("flaky")
	if got.Status != StatusFailed {
		t.Errorf("status after exhausting retries = %s, want %s", got.Status, StatusFailed)
	}
	if got.CompletedAt == nil {
		t.Error("failed item has no completion time")
	}
	if got.Error != "gave up" {
		t.Errorf("error = %q, want %q", got.Error, "gave up")
	}
	if item := q.DequeueNext(); item != nil {
		t.Errorf("terminal job should not be claimable, got %+v", item)
	}
}

func TestQueue_FailPromotionCapsAtCritical(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 1, PromoteOnRetry: true})
	mustEnqueue(t, q, testItem("urgent", PriorityCritical))

	mustClaim(t, q)
	if err := q.Fail("urgent", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	got, _ := q.Status("urgent")
	if got.Priority != PriorityCritical {
		t.Errorf("priority = %s, want %s (capped)", got.Priority, PriorityCritical)
	}
}

func TestQueue_FailWithoutPromotion(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 1, PromoteOnRetry: false})
	mustEnqueue(t, q, testItem("steady", PriorityLow))

	mustClaim(t, q)
	if err := q.Fail("steady", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	got, _ := q.Status("steady")
	if got.Priority != PriorityLow {
		t.Errorf("priority = %s, want %s (unchanged)", got.Priority, PriorityLow)
	}
}

func TestQueue_FailWithNoRetriesIsTerminal(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 0})
	mustEnqueue(t, q, testItem("once", PriorityNormal))

	mustClaim(t, q)
	if err := q.Fail("once", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	got, _ := q.Status("once")
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want %s", got.Status, StatusFailed)
	}
}

func TestQueue_RetryGetsFreshEnqueueTime(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 1, PromoteOnRetry: false})
	mustEnqueue(t, q, testItem("a", PriorityNormal))
	mustEnqueue(t, q, testItem("b", PriorityNormal))

	// "a" fails and is requeued behind "b" at the same priority
	first := mustClaim(t, q)
	if first.ID != "a" {
		t.Fatalf("expected 'a' first, got '%s'", first.ID)
	}
	if err := q.Fail("a", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	second := mustClaim(t, q)
	if second.ID != "b" {
		t.Errorf("expected 'b' before retried 'a', got '%s'", second.ID)
	}
	third := mustClaim(t, q)
	if third.ID != "a" {
		t.Errorf("expected retried 'a' last, got '%s'", third.ID)
	}
}

func TestQueue_FailValidation(t *testing.T) {
	q := New(0, DefaultRetryPolicy())
	mustEnqueue(t, q, testItem("a", PriorityNormal))

	if err := q.Fail("a", fmt.Errorf("boom")); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("expected ErrNotInProgress, got %v", err)
	}
	if err := q.Fail("missing", fmt.Errorf("boom")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueue_Stats(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 0})

	mustEnqueue(t, q, testItem("q1", PriorityNormal))
	mustEnqueue(t, q, testItem("q2", PriorityLow))
	mustEnqueue(t, q, testItem("running", PriorityCritical))
	mustEnqueue(t, q, testItem("done", PriorityCritical))
	mustEnqueue(t, q, testItem("broken", PriorityCritical))
	mustEnqueue(t, q, testItem("dropped", PriorityBackground))

	// critical items first: running, done, broken
	mustClaim(t, q)
	mustClaim(t, q)
	mustClaim(t, q)
	if err := q.Complete("done"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Fail("broken", fmt.Errorf("boom")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if err := q.Cancel("dropped"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	stats := q.Stats()
	if stats.Total != 6 {
		t.Errorf("expected total 6, got %d", stats.Total)
	}
	if stats.Queued != 2 {
		t.Errorf("expected queued 2, got %d", stats.Queued)
	}
	if stats.InProgress != 1 {
		t.Errorf("expected in progress 1, got %d", stats.InProgress)
	}
	if stats.Completed != 1 {
		t.Errorf("expected completed 1, got %d", stats.Completed)
	}
	if stats.Failed != 1 {
		t.Errorf("expected failed 1, got %d", stats.Failed)
	}
	if stats.Canceled != 1 {
		t.Errorf("expected canceled 1, got %d", stats.Canceled)
	}
}

func TestQueue_Cleanup(t *testing.T) {
	q := New(0, RetryPolicy{MaxRetries: 0})

	mustEnqueue(t, q, testItem("keep", PriorityNormal))
	mustEnqueue(t, q, testItem("done", PriorityCritical))
	mustEnqueue(t, q, testItem("dropped", PriorityBackground))

	mustClaim(t, q) // claims "done"
	if err := q.Complete("done"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Cancel("dropped"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Terminal jobs stay queryable until cleanup, never silently dropped
	if _, err := q.Status("done"); err != nil {
		t.Errorf("terminal job should be queryable before cleanup: %v", err)
	}

	removed := q.Cleanup()
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, err := q.Status("done"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after cleanup, got %v", err)
	}
	if _, err := q.Status("keep"); err != nil {
		t.Errorf("live job evicted by cleanup: %v", err)
	}
}

func TestQueue_List(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	a := testItem("a", PriorityLow)
	a.AddedAt = time.Now().UTC().Add(-2 * time.Minute)
	b := testItem("b", PriorityCritical)
	b.AddedAt = time.Now().UTC().Add(-time.Minute)
	mustEnqueue(t, q, b)
	mustEnqueue(t, q, a)

	items := q.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Errorf("expected enqueue-time order [a b], got [%s %s]", items[0].ID, items[1].ID)
	}
}

func TestQueue_WakeSignal(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	claimed := make(chan *Item, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-q.Wake():
			claimed <- q.DequeueNext()
		case <-time.After(2 * time.Second):
			claimed <- nil
		}
	}()

	// Give the consumer time to start waiting
	time.Sleep(10 * time.Millisecond)
	mustEnqueue(t, q, testItem("a", PriorityNormal))

	wg.Wait()
	item := <-claimed
	if item == nil {
		t.Fatal("consumer was not woken by enqueue")
	}
	if item.ID != "a" {
		t.Errorf("expected 'a', got '%s'", item.ID)
	}
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := New(10000, DefaultRetryPolicy())

	const numProducers = 5
	const itemsPerProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < itemsPerProducer; j++ {
				priority := PriorityNormal
				if j%10 == 0 {
					priority = PriorityHigh
				}
				id := fmt.Sprintf("p%d-item%d", producer, j)
				if err := q.Enqueue(testItem(id, priority)); err != nil {
					t.Errorf("Enqueue failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	stats := q.Stats()
	if stats.Queued != numProducers*itemsPerProducer {
		t.Errorf("expected %d queued, got %d", numProducers*itemsPerProducer, stats.Queued)
	}
}

func TestQueue_NoDoubleClaim(t *testing.T) {
	q := New(0, DefaultRetryPolicy())

	const numItems = 50
	const numConsumers = 10

	for i := 0; i < numItems; i++ {
		mustEnqueue(t, q, testItem(fmt.Sprintf("item-%d", i), PriorityNormal))
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < numConsumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item := q.DequeueNext()
				if item == nil {
					return
				}
				mu.Lock()
				seen[item.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != numItems {
		t.Errorf("expected %d distinct claims, got %d", numItems, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("item %s claimed %d times", id, count)
		}
	}
}
