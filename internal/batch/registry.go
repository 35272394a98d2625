package batch

import (
	"context"
	"sync"
	"time"
)

// Stage identifies where a batch is in its lifecycle
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageProcessing   Stage = "processing"
	StageDuplicates   Stage = "duplicates"
	StageValidation   Stage = "validation"
	StageReporting    Stage = "reporting"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
	StageCancelled    Stage = "cancelled"
)

// Status is a point-in-time snapshot of a batch
type Status struct {
	BatchID        string    `json:"batch_id"`
	Stage          Stage     `json:"stage"`
	TotalFiles     int       `json:"total_files"`
	CompletedFiles int       `json:"completed_files"`
	FailedFiles    int       `json:"failed_files"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
}

// IsTerminal reports whether the batch has stopped moving
func (s *Status) IsTerminal() bool {
	return s.Stage == StageComplete || s.Stage == StageFailed || s.Stage == StageCancelled
}

type batchEntry struct {
	status Status
	cancel context.CancelFunc
}

// Registry tracks in-flight and finished batches so callers can query
// status and request cancellation while a batch runs. Safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	batches map[string]*batchEntry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		batches: map[string]*batchEntry{},
	}
}

// register adds a batch in the initializing stage
func (r *Registry) register(batchID string, totalFiles int, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches[batchID] = &batchEntry{
		status: Status{
			BatchID:    batchID,
			Stage:      StageInitializing,
			TotalFiles: totalFiles,
			StartedAt:  time.Now(),
		},
		cancel: cancel,
	}
}

// setStage moves a batch to the given stage, stamping the finish time on
// terminal stages
func (r *Registry) setStage(batchID string, stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.batches[batchID]
	if !ok {
		return
	}

	entry.status.Stage = stage
	if entry.status.IsTerminal() {
		entry.status.FinishedAt = time.Now()
	}
}

// setProgress updates the per-file counters of a batch
func (r *Registry) setProgress(batchID string, completed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.batches[batchID]; ok {
		entry.status.CompletedFiles = completed
		entry.status.FailedFiles = failed
	}
}

// GetStatus returns a snapshot of the batch, if known
func (r *Registry) GetStatus(batchID string) (*Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.batches[batchID]
	if !ok {
		return nil, false
	}

	snapshot := entry.status
	return &snapshot, true
}

// Cancel requests cancellation of a running batch. Cancellation is best
// effort: extractions already in flight finish or fail on their own, and
// a batch that already reached a terminal stage is left untouched.
func (r *Registry) Cancel(batchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.batches[batchID]
	if !ok || entry.status.IsTerminal() {
		return false
	}

	if entry.cancel != nil {
		entry.cancel()
	}
	return true
}

// Remove forgets a batch. Intended for callers that have consumed the
// final status of a terminal batch.
func (r *Registry) Remove(batchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, batchID)
}

// ActiveCount returns the number of non-terminal batches
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.batches {
		if !entry.status.IsTerminal() {
			count++
		}
	}
	return count
}
