package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
)

// GroupStorage implements the GroupStorage interface for Badger
type GroupStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewGroupStorage creates a new GroupStorage instance
func NewGroupStorage(db *BadgerDB, logger arbor.ILogger) interfaces.GroupStorage {
	return &GroupStorage{
		db:     db,
		logger: logger,
	}
}

func (s *GroupStorage) ExistsByExternalID(ctx context.Context, externalID int64) (bool, error) {
	count, err := s.db.Store().Count(&models.GroupRecord{}, badgerhold.Where("ExternalID").Eq(externalID))
	if err != nil {
		return false, fmt.Errorf("failed to check group existence: %w", err)
	}
	return count > 0, nil
}

func (s *GroupStorage) BulkInsert(ctx context.Context, records []*models.GroupRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	for _, record := range records {
		if record.ID == "" {
			return inserted, fmt.Errorf("group record ID is required")
		}
		if err := s.db.Store().Insert(record.ID, record); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				continue
			}
			return inserted, fmt.Errorf("failed to insert group %d: %w", record.ExternalID, err)
		}
		inserted++
	}

	s.logger.Debug().
		Int("count", inserted).
		Str("task_id", records[0].TaskID).
		Msg("Bulk-inserted group records")

	return inserted, nil
}

func (s *GroupStorage) CountGroups(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.GroupRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return int(count), nil
}

func (s *GroupStorage) ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Skip(offset)
	}

	var records []models.GroupRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	result := make([]*models.GroupRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *GroupStorage) DeleteByTaskID(ctx context.Context, taskID string) (int, error) {
	var records []models.GroupRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("TaskID").Eq(taskID)); err != nil {
		return 0, fmt.Errorf("failed to find groups for task %s: %w", taskID, err)
	}

	count := 0
	for _, record := range records {
		if err := s.db.Store().Delete(record.ID, &models.GroupRecord{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return count, fmt.Errorf("failed to delete group %s: %w", record.ID, err)
		}
		count++
	}
	return count, nil
}
