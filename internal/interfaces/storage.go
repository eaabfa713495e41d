package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/congrego/internal/models"
)

// ErrTaskNotFound is returned by TaskStore.Get for an unknown task id
var ErrTaskNotFound = errors.New("task not found")

// TaskStore is the id-addressed side-channel through which upload-task
// progress is observed. It performs whole-record read-modify-write and does
// not serialize concurrent writers to the same key: callers must guarantee a
// single writer per task id (one owning pipeline goroutine).
type TaskStore interface {
	// Create stores a new task record
	Create(ctx context.Context, task *models.UploadTask) error

	// Get returns a snapshot of the task, or ErrTaskNotFound
	Get(ctx context.Context, taskID string) (*models.UploadTask, error)

	// List returns the most recently created tasks, newest first
	List(ctx context.Context, limit int) ([]*models.UploadTask, error)

	// Update applies mutate to the stored record under the store's write
	// path. A missing task is a logged no-op, never an error, so a late
	// update after a retention sweep cannot crash the pipeline.
	Update(ctx context.Context, taskID string, mutate func(*models.UploadTask)) error

	// Delete removes the task record; deleting a missing task is a no-op
	Delete(ctx context.Context, taskID string) error

	// SweepOlderThan deletes task records created more than age ago and
	// returns how many were removed
	SweepOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// GroupStorage is the persistence collaborator for stored groups
type GroupStorage interface {
	// ExistsByExternalID reports whether a group with the canonical
	// external id is already stored
	ExistsByExternalID(ctx context.Context, externalID int64) (bool, error)

	// BulkInsert stores the records in one operation and returns the
	// inserted count. Records carry the originating task id.
	BulkInsert(ctx context.Context, records []*models.GroupRecord) (int, error)

	// CountGroups returns the total number of stored groups
	CountGroups(ctx context.Context) (int, error)

	// ListGroups returns stored groups, newest first
	ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupRecord, error)

	// DeleteByTaskID removes every record inserted by the given task and
	// returns how many were removed
	DeleteByTaskID(ctx context.Context, taskID string) (int, error)
}

// GroupDirectory resolves raw identifier references (numeric ids or screen
// names) against the external directory service. One call covers at most the
// service's per-call batch limit.
type GroupDirectory interface {
	ResolveGroups(ctx context.Context, refs []string) ([]models.ResolvedGroup, error)
}

// TaskNotifier receives task snapshots on every status transition. Wired to
// the WebSocket broadcaster; polling the TaskStore remains the primary
// observation channel.
type TaskNotifier interface {
	NotifyTaskUpdated(task *models.UploadTask)
}
