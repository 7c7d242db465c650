// Package queue implements the priority-ordered job registry at the heart of
// the processing pipeline. It is the single source of truth for job state:
// workers claim from it, the coordinator reports into it, and its snapshot is
// what survives a restart.
package queue

import (
	"container/heap"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNilItem is returned when attempting to enqueue a nil item.
	ErrNilItem = errors.New("cannot enqueue nil item")
	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("queue is at capacity")
	// ErrDuplicateJob is returned when the job id is already registered.
	ErrDuplicateJob = errors.New("job id already registered")
	// ErrNotFound is returned when no job with the given id is registered.
	ErrNotFound = errors.New("job not found")
	// ErrNotCancelable is returned when canceling a job that already started
	// or finished. In-flight jobs run to completion or failure.
	ErrNotCancelable = errors.New("job is not cancelable")
	// ErrNotInProgress is returned when completing or failing a job that no
	// worker has claimed.
	ErrNotInProgress = errors.New("job is not in progress")
)

// RetryPolicy controls what happens when a claimed job fails.
type RetryPolicy struct {
	// MaxRetries is how many times a failed job is requeued before it goes
	// terminal. Zero disables retries.
	MaxRetries int `json:"max_retries"`
	// PromoteOnRetry bumps a requeued job one priority step more urgent,
	// capped at critical, so a flaky page does not languish behind the
	// backlog that has built up since its first attempt.
	PromoteOnRetry bool `json:"promote_on_retry"`
}

// DefaultRetryPolicy retries twice with promotion.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, PromoteOnRetry: true}
}

// Queue is a thread-safe, bounded, priority-ordered job registry.
// Jobs with numerically lower priority are dequeued first; within one level
// ordering is FIFO by enqueue sequence.
type Queue struct {
	mu       sync.Mutex
	registry map[string]*Item
	order    entryHeap
	seq      uint64
	capacity int
	policy   RetryPolicy
	notify   chan struct{} // Signaled when items become claimable
}

// DefaultCapacity bounds the queue when no explicit capacity is configured.
const DefaultCapacity = 1000

// New creates a queue holding at most capacity live (queued or in-progress)
// jobs. A non-positive capacity falls back to DefaultCapacity.
func New(capacity int, policy RetryPolicy) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		registry: make(map[string]*Item),
		order:    make(entryHeap, 0),
		capacity: capacity,
		policy:   policy,
		notify:   make(chan struct{}, 1), // Buffered to avoid blocking Enqueue
	}
	heap.Init(&q.order)
	return q
}

// Enqueue registers the item and inserts it into the ordering structure.
// Fails with ErrQueueFull when the live job count is at capacity and with
// ErrDuplicateJob when the id is already registered, terminal or not.
func (q *Queue) Enqueue(item *Item) error {
	if item == nil {
		return ErrNilItem
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.registry[item.ID]; exists {
		return ErrDuplicateJob
	}
	if q.liveCountLocked() >= q.capacity {
		return ErrQueueFull
	}

	item.Status = StatusQueued
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	q.pushLocked(item)
	q.registry[item.ID] = item

	q.wakeLocked()
	return nil
}

// DequeueNext claims the queued item with the most urgent (priority, enqueue
// sequence) key, marks it in progress and stamps its start time. Entries
// whose registry state moved on since they were pushed are skipped. Returns
// nil when nothing is claimable.
//
// The returned item is a copy; report outcomes through Complete or Fail.
func (q *Queue) DequeueNext() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.order.Len() > 0 {
		entry := heap.Pop(&q.order).(*orderEntry)
		item, ok := q.registry[entry.id]
		if !ok || item.Status != StatusQueued || item.seq != entry.seq {
			// Stale entry: canceled, claimed through a newer entry, or
			// evicted. Treat as absent.
			continue
		}

		now := time.Now().UTC()
		item.Status = StatusInProgress
		item.StartedAt = &now
		return item.Clone()
	}
	return nil
}

// Wake returns a channel signaled whenever an item becomes claimable.
// Workers select on it alongside their poll timer.
func (q *Queue) Wake() <-chan struct{} {
	return q.notify
}

// Complete marks an in-progress job completed.
func (q *Queue) Complete(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.registry[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status != StatusInProgress {
		return ErrNotInProgress
	}

	now := time.Now().UTC()
	item.Status = StatusCompleted
	item.CompletedAt = &now
	return nil
}

// Fail records a failed attempt. While retries remain under the queue's
// policy the job is requeued with a fresh enqueue time, promoted one
// priority step when the policy says so; once retries are exhausted it goes
// terminal FAILED.
func (q *Queue) Fail(id string, jobErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.registry[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status != StatusInProgress {
		return ErrNotInProgress
	}

	item.Attempts++
	if jobErr != nil {
		item.Error = jobErr.Error()
	}

	if item.Attempts <= q.policy.MaxRetries {
		if q.policy.PromoteOnRetry {
			item.Priority = item.Priority.Promote()
		}
		item.Status = StatusQueued
		item.AddedAt = time.Now().UTC()
		item.StartedAt = nil
		q.pushLocked(item)
		q.wakeLocked()
		return nil
	}

	now := time.Now().UTC()
	item.Status = StatusFailed
	item.CompletedAt = &now
	return nil
}

// Cancel marks a job canceled. Only queued jobs can be canceled; a claimed
// job runs to completion or failure.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.registry[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status != StatusQueued {
		return ErrNotCancelable
	}

	now := time.Now().UTC()
	item.Status = StatusCanceled
	item.CompletedAt = &now
	// The ordering entry stays behind; dequeue skips it.
	return nil
}

// Status returns a copy of the registered job.
func (q *Queue) Status(id string) (*Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.registry[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item.Clone(), nil
}

// List returns copies of every registered job, terminal ones included,
// ordered by enqueue time.
func (q *Queue) List() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]*Item, 0, len(q.registry))
	for _, item := range q.registry {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.Before(items[j].AddedAt) })
	return items
}

// Stats reports point-in-time counts per status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{Total: len(q.registry)}
	for _, item := range q.registry {
		switch item.Status {
		case StatusQueued:
			stats.Queued++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusCanceled:
			stats.Canceled++
		}
	}
	return stats
}

// Cleanup evicts terminal jobs from the registry and returns how many were
// removed. Until cleanup runs, failed and canceled jobs stay queryable.
func (q *Queue) Cleanup() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, item := range q.registry {
		if item.Status.IsTerminal() {
			delete(q.registry, id)
			removed++
		}
	}
	return removed
}

// Stats reports queue depth by job status.
type Stats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Canceled   int `json:"canceled"`
}

// liveCountLocked counts jobs still holding a capacity slot. Terminal jobs
// awaiting cleanup do not block new admissions.
func (q *Queue) liveCountLocked() int {
	n := 0
	for _, item := range q.registry {
		if !item.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// pushLocked assigns the next sequence number and inserts an ordering entry.
func (q *Queue) pushLocked(item *Item) {
	q.seq++
	item.seq = q.seq
	heap.Push(&q.order, &orderEntry{id: item.ID, priority: item.Priority, seq: q.seq})
}

// wakeLocked signals waiting consumers without blocking.
func (q *Queue) wakeLocked() {
	select {
	case q.notify <- struct{}{}:
	default:
		// Channel already has a pending notification
	}
}

// orderEntry keys one queued item in the ordering structure.
type orderEntry struct {
	id       string
	priority Priority
	seq      uint64 // For FIFO ordering within same priority
}

// entryHeap implements heap.Interface over ordering entries.
// Lower priority values come first. Equal priorities use FIFO (lower seq first).
type entryHeap []*orderEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	// Numerically lower priority is more urgent (min-heap behavior)
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	// Same priority: lower sequence number (earlier) comes first (FIFO)
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*orderEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil // Avoid memory leak
	*h = old[0 : n-1]
	return entry
}
