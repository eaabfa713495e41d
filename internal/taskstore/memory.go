// Package taskstore provides the in-memory upload-task store. The
// badger-backed alternative lives in internal/storage/badger.
package taskstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
)

// MemoryStore is a mutex-guarded map of task records. It hands out deep
// copies so pollers never observe a record mid-mutation; the single writer
// per task id is guaranteed by the pipeline, not by this store.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]*models.UploadTask
	logger arbor.ILogger
}

// NewMemoryStore creates an empty in-memory task store
func NewMemoryStore(logger arbor.ILogger) *MemoryStore {
	return &MemoryStore{
		tasks:  make(map[string]*models.UploadTask),
		logger: logger,
	}
}

func (s *MemoryStore) Create(ctx context.Context, task *models.UploadTask) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, taskID string) (*models.UploadTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTaskNotFound, taskID)
	}
	return task.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*models.UploadTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.UploadTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *MemoryStore) Update(ctx context.Context, taskID string, mutate func(*models.UploadTask)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		// The record may have been swept while the pipeline was still
		// running; a late update must not fail the run.
		s.logger.Warn().Str("task_id", taskID).Msg("Update on missing task ignored")
		return nil
	}
	mutate(task)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, taskID)
	return nil
}

func (s *MemoryStore) SweepOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, task := range s.tasks {
		if task.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			count++
		}
	}
	return count, nil
}
