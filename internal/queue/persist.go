package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// snapshot is the on-disk form of the registry: a map of job id to job
// record plus the save timestamp.
type snapshot struct {
	SavedAt time.Time        `json:"saved_at"`
	Items   map[string]*Item `json:"items"`
}

// SaveTo serializes the full registry to path. The write goes through a
// temp file in the same directory and a rename, so a crash mid-write never
// leaves a truncated snapshot behind.
func (q *Queue) SaveTo(path string) error {
	q.mu.Lock()
	snap := snapshot{
		SavedAt: time.Now().UTC(),
		Items:   make(map[string]*Item, len(q.registry)),
	}
	for id, item := range q.registry {
		snap.Items[id] = item.Clone()
	}
	q.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize queue snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".queue-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// LoadFrom restores jobs from a snapshot written by SaveTo. In-progress
// entries are reset to queued (their owning worker is assumed dead) and
// terminal entries are dropped. Returns the number of jobs restored.
//
// A missing snapshot file is not an error; the queue simply starts empty.
func (q *Queue) LoadFrom(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read queue snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("failed to parse queue snapshot: %w", err)
	}

	// Re-enqueue in original admission order so FIFO ties survive the
	// round trip.
	restorable := make([]*Item, 0, len(snap.Items))
	for id, item := range snap.Items {
		if item == nil || item.Status.IsTerminal() {
			continue
		}
		if item.ID == "" {
			item.ID = id
		}
		restorable = append(restorable, item)
	}
	sort.Slice(restorable, func(i, j int) bool {
		return restorable[i].AddedAt.Before(restorable[j].AddedAt)
	})

	q.mu.Lock()
	defer q.mu.Unlock()

	restored := 0
	for _, item := range restorable {
		if _, exists := q.registry[item.ID]; exists {
			continue
		}
		item.Status = StatusQueued
		item.StartedAt = nil
		q.pushLocked(item)
		q.registry[item.ID] = item
		restored++
	}
	if restored > 0 {
		q.wakeLocked()
	}
	return restored, nil
}
