// -----------------------------------------------------------------------
// Upload Task - Tracked asynchronous unit of work for one file submission
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// TaskStatus represents the lifecycle state of an upload task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskProgress tracks how far an upload task has advanced.
// Invariant: Valid + Invalid + Duplicates <= Processed <= Total.
type TaskProgress struct {
	Total      int     `json:"total"`
	Processed  int     `json:"processed"`
	Valid      int     `json:"valid"`
	Invalid    int     `json:"invalid"`
	Duplicates int     `json:"duplicates"`
	Percentage float64 `json:"percentage"`
}

// UploadTask represents one tracked file-ingestion job. The task record is
// created at submission and mutated only by the pipeline goroutine that owns
// it; pollers read whole snapshots through the task store.
type UploadTask struct {
	ID            string       `json:"id" badgerhold:"key"`
	Filename      string       `json:"filename"`
	Status        TaskStatus   `json:"status"`
	Progress      TaskProgress `json:"progress"`
	Errors        []string     `json:"errors,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// NewUploadTask creates a pending task for a freshly parsed file. Parse-stage
// failures are already known at creation time, so the invalid and duplicate
// tallies start pre-filled and count as processed work.
func NewUploadTask(id, filename string, total, invalid, duplicates int) *UploadTask {
	t := &UploadTask{
		ID:       id,
		Filename: filename,
		Status:   TaskStatusPending,
		Progress: TaskProgress{
			Total:      total,
			Processed:  invalid + duplicates,
			Invalid:    invalid,
			Duplicates: duplicates,
		},
		CreatedAt: time.Now(),
	}
	t.Progress.recalc()
	return t
}

func (p *TaskProgress) recalc() {
	if p.Total > 0 {
		p.Percentage = float64(p.Processed) / float64(p.Total) * 100
	}
}

// AddProcessed advances the progress counters by one classified outcome each
func (t *UploadTask) AddProcessed(valid, invalid, duplicates int) {
	t.Progress.Valid += valid
	t.Progress.Invalid += invalid
	t.Progress.Duplicates += duplicates
	t.Progress.Processed += valid + invalid + duplicates
	t.Progress.recalc()
}

// AdvanceProcessed advances the processed count for identifiers whose
// classification (valid vs duplicate) is not yet known.
func (t *UploadTask) AdvanceProcessed(n int) {
	t.Progress.Processed += n
	t.Progress.recalc()
}

// Classify settles previously advanced work into the valid and duplicate
// tallies without moving the processed count.
func (t *UploadTask) Classify(valid, duplicates int) {
	t.Progress.Valid += valid
	t.Progress.Duplicates += duplicates
}

// AppendError records a non-fatal error message on the task
func (t *UploadTask) AppendError(msg string) {
	t.Errors = append(t.Errors, msg)
}

// MarkProcessing transitions pending -> processing and stamps StartedAt
func (t *UploadTask) MarkProcessing() {
	t.Status = TaskStatusProcessing
	now := time.Now()
	t.StartedAt = &now
}

// MarkCompleted transitions to the terminal completed state
func (t *UploadTask) MarkCompleted() {
	t.Status = TaskStatusCompleted
	now := time.Now()
	t.CompletedAt = &now
	t.Progress.recalc()
}

// MarkFailed transitions to the terminal failed state with a reason
func (t *UploadTask) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.FailureReason = reason
	now := time.Now()
	t.CompletedAt = &now
}

// IsTerminal returns true if the task is in a terminal state
func (t *UploadTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// Clone returns a deep copy so pollers never share mutable state with the
// owning pipeline goroutine.
func (t *UploadTask) Clone() *UploadTask {
	clone := *t
	if t.Errors != nil {
		clone.Errors = append([]string(nil), t.Errors...)
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		clone.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
