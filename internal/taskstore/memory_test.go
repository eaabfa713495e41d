package taskstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(arbor.NewLogger())
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	task := models.NewUploadTask("task-1", "groups.txt", 10, 2, 1)
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Filename != "groups.txt" {
		t.Errorf("expected filename groups.txt, got %s", got.Filename)
	}
	if got.Status != models.TaskStatusPending {
		t.Errorf("expected pending status, got %s", got.Status)
	}
	if got.Progress.Processed != 3 {
		t.Errorf("expected 3 pre-processed (invalid+duplicates), got %d", got.Progress.Processed)
	}
}

func TestMemoryStore_CreateDuplicateID(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	task := models.NewUploadTask("task-1", "a.txt", 1, 0, 0)
	if err := store.Create(ctx, task); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, task); err == nil {
		t.Fatal("expected error creating duplicate task id")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := newTestStore()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, interfaces.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestMemoryStore_GetReturnsSnapshot(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	task := models.NewUploadTask("task-1", "a.txt", 5, 0, 0)
	if err := store.Create(ctx, task); err != nil {
		t.Fatal(err)
	}

	snap, _ := store.Get(ctx, "task-1")
	snap.Status = models.TaskStatusFailed
	snap.AppendError("mutated snapshot")

	fresh, _ := store.Get(ctx, "task-1")
	if fresh.Status != models.TaskStatusPending {
		t.Error("mutation of a snapshot leaked into the store")
	}
	if len(fresh.Errors) != 0 {
		t.Error("error appended to a snapshot leaked into the store")
	}
}

func TestMemoryStore_UpdateMissingIsNoOp(t *testing.T) {
	store := newTestStore()

	called := false
	err := store.Update(context.Background(), "swept-away", func(t *models.UploadTask) {
		called = true
	})
	if err != nil {
		t.Fatalf("Update on missing task must not error, got %v", err)
	}
	if called {
		t.Error("mutate must not run for a missing task")
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	task := models.NewUploadTask("task-1", "a.txt", 5, 0, 0)
	if err := store.Create(ctx, task); err != nil {
		t.Fatal(err)
	}

	err := store.Update(ctx, "task-1", func(t *models.UploadTask) {
		t.MarkProcessing()
		t.AddProcessed(3, 1, 0)
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(ctx, "task-1")
	if got.Status != models.TaskStatusProcessing {
		t.Errorf("expected processing, got %s", got.Status)
	}
	if got.Progress.Processed != 4 || got.Progress.Valid != 3 || got.Progress.Invalid != 1 {
		t.Errorf("unexpected progress: %+v", got.Progress)
	}
	if got.StartedAt == nil {
		t.Error("expected StartedAt to be set")
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for i, id := range []string{"old", "mid", "new"} {
		task := models.NewUploadTask(id, "a.txt", 1, 0, 0)
		task.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		if err := store.Create(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "new" || tasks[1].ID != "mid" {
		t.Errorf("expected [new mid], got [%s %s]", tasks[0].ID, tasks[1].ID)
	}
}

func TestMemoryStore_SweepOlderThan(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	old := models.NewUploadTask("old", "a.txt", 1, 0, 0)
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := models.NewUploadTask("fresh", "b.txt", 1, 0, 0)

	if err := store.Create(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	removed, err := store.SweepOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	if _, err := store.Get(ctx, "old"); !errors.Is(err, interfaces.ErrTaskNotFound) {
		t.Error("expected old task to be swept")
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh task must survive the sweep: %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	task := models.NewUploadTask("task-1", "a.txt", 1, 0, 0)
	if err := store.Create(ctx, task); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatal(err)
	}
	// Deleting a missing task is a no-op.
	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatal(err)
	}
}
