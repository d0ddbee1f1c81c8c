package pipeline

import (
	"context"
	"sync"
	"time"
)

// DeployStatus values reported by the tracker
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DeployStatus is a point-in-time snapshot of an activation
type DeployStatus struct {
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Logs      []string  `json:"logs"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusTracker keeps in-memory deployment progress keyed by store slug.
// Entries expire after a TTL so abandoned polls do not pin memory; a missing
// key reads as completed so clients polling after expiry settle cleanly.
type StatusTracker struct {
	mu      sync.RWMutex
	entries map[string]*DeployStatus
	ttl     time.Duration
}

func NewStatusTracker(ttl time.Duration) *StatusTracker {
	return &StatusTracker{
		entries: make(map[string]*DeployStatus),
		ttl:     ttl,
	}
}

// Update records progress for a slug, appending the message to its log trail
func (t *StatusTracker) Update(slug string, progress int, message, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[slug]
	if !ok {
		entry = &DeployStatus{}
		t.entries[slug] = entry
	}
	entry.Progress = progress
	entry.Message = message
	entry.Status = status
	entry.Logs = append(entry.Logs, message)
	entry.UpdatedAt = time.Now()
}

// Get returns the current status for a slug. Unknown slugs yield a synthetic
// completed entry.
func (t *StatusTracker) Get(slug string) DeployStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if entry, ok := t.entries[slug]; ok {
		snapshot := *entry
		snapshot.Logs = append([]string(nil), entry.Logs...)
		return snapshot
	}
	return DeployStatus{
		Progress:  100,
		Message:   "No active deployment",
		Status:    StatusCompleted,
		UpdatedAt: time.Now(),
	}
}

// StartSweeper evicts expired entries on the given interval until ctx ends
func (t *StatusTracker) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.sweep(time.Now())
			}
		}
	}()
}

func (t *StatusTracker) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for slug, entry := range t.entries {
		if now.Sub(entry.UpdatedAt) > t.ttl {
			delete(t.entries, slug)
		}
	}
}
