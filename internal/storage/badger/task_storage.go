package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
)

// TaskStorage implements the TaskStore interface on Badger, for deployments
// that want task records to survive a restart. Semantics match the in-memory
// store: whole-record read-modify-write, single writer per task id.
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStore {
	return &TaskStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TaskStorage) Create(ctx context.Context, task *models.UploadTask) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if err := s.db.Store().Insert(task.ID, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *TaskStorage) Get(ctx context.Context, taskID string) (*models.UploadTask, error) {
	var task models.UploadTask
	if err := s.db.Store().Get(taskID, &task); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (s *TaskStorage) List(ctx context.Context, limit int) ([]*models.UploadTask, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var tasks []models.UploadTask
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	result := make([]*models.UploadTask, len(tasks))
	for i := range tasks {
		result[i] = &tasks[i]
	}
	return result, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskID string, mutate func(*models.UploadTask)) error {
	var task models.UploadTask
	if err := s.db.Store().Get(taskID, &task); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Str("task_id", taskID).Msg("Update on missing task ignored")
			return nil
		}
		return fmt.Errorf("failed to load task for update: %w", err)
	}

	mutate(&task)

	if err := s.db.Store().Upsert(taskID, &task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, taskID string) error {
	if err := s.db.Store().Delete(taskID, &models.UploadTask{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskStorage) SweepOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)

	var tasks []models.UploadTask
	if err := s.db.Store().Find(&tasks, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find expired tasks: %w", err)
	}

	count := 0
	for _, task := range tasks {
		if err := s.db.Store().Delete(task.ID, &models.UploadTask{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return count, fmt.Errorf("failed to delete expired task %s: %w", task.ID, err)
		}
		count++
	}
	return count, nil
}
