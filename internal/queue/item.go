package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// Priority orders jobs in the queue. Lower values are dequeued first.
type Priority int

const (
	PriorityCritical   Priority = 0 // Operator-requested reprocessing
	PriorityHigh       Priority = 1 // Interactive requests
	PriorityNormal     Priority = 2 // Regular page processing
	PriorityLow        Priority = 3 // Bulk issue processing
	PriorityBackground Priority = 4 // Spool admissions and backfill
)

var priorityNames = map[Priority]string{
	PriorityCritical:   "critical",
	PriorityHigh:       "high",
	PriorityNormal:     "normal",
	PriorityLow:        "low",
	PriorityBackground: "background",
}

// String returns the stable wire name of the priority.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// IsValid returns true if p is one of the five defined levels.
func (p Priority) IsValid() bool {
	_, ok := priorityNames[p]
	return ok
}

// Promote returns the priority one step more urgent, capped at critical.
func (p Priority) Promote() Priority {
	if p <= PriorityCritical {
		return PriorityCritical
	}
	return p - 1
}

// ParsePriority converts a wire name to a Priority.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return PriorityNormal, fmt.Errorf("unknown priority: %q", s)
}

// MarshalJSON encodes the priority as its stable wire name rather than a
// bare number, so snapshots stay readable across level renumbering.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("cannot encode invalid priority %d", int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a priority from its wire name.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status represents the current state of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// IsTerminal returns true for states a job never leaves.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// IsValid returns true if s is one of the five defined states.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Item is one page-processing job. The queue owns it until a worker claims
// it; afterwards all mutations go through queue methods so status
// transitions stay serialized.
type Item struct {
	ID            string                 `json:"id"`
	PageID        string                 `json:"page_id"`
	SourcePath    string                 `json:"source_path"`
	Priority      Priority               `json:"priority"`
	Status        Status                 `json:"status"`
	Config        press.ProcessingConfig `json:"config"`
	IssueID       string                 `json:"issue_id,omitempty"`
	PublicationID string                 `json:"publication_id,omitempty"`
	Metadata      map[string]string      `json:"metadata,omitempty"`
	AddedAt       time.Time              `json:"added_at"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Attempts      int                    `json:"attempts"`

	// seq ties the item to its live ordering entry; stale heap entries
	// carry an older value and are skipped at dequeue.
	seq uint64
}

// NewItem creates a queued item for a page.
func NewItem(id, pageID, sourcePath string, cfg press.ProcessingConfig, priority Priority) *Item {
	return &Item{
		ID:         id,
		PageID:     pageID,
		SourcePath: sourcePath,
		Priority:   priority,
		Status:     StatusQueued,
		Config:     cfg,
		AddedAt:    time.Now().UTC(),
	}
}

// Clone returns a deep copy safe to hand outside the queue lock.
func (it *Item) Clone() *Item {
	cp := *it
	if it.Metadata != nil {
		cp.Metadata = make(map[string]string, len(it.Metadata))
		for k, v := range it.Metadata {
			cp.Metadata[k] = v
		}
	}
	if it.StartedAt != nil {
		t := *it.StartedAt
		cp.StartedAt = &t
	}
	if it.CompletedAt != nil {
		t := *it.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
