package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
)

// Deduper classifies resolved descriptors against the persistent group store
// and inserts the new ones.
type Deduper struct {
	storage interfaces.GroupStorage
	logger  arbor.ILogger
}

func NewDeduper(storage interfaces.GroupStorage, logger arbor.ILogger) *Deduper {
	return &Deduper{storage: storage, logger: logger}
}

// ClassifyAndPersist splits descriptors into new records and duplicates,
// persists the new ones, and returns the counts. A descriptor is a duplicate
// if its external id is already stored, or if an earlier descriptor in the
// same call carried the same external id (an id and its screen name can
// resolve to the same group). A storage error is fatal for the caller's run.
func (d *Deduper) ClassifyAndPersist(ctx context.Context, descriptors []models.ResolvedGroup, taskID string) (persisted, duplicates int, err error) {
	if len(descriptors) == 0 {
		return 0, 0, nil
	}

	now := time.Now()
	seen := make(map[int64]bool, len(descriptors))
	var records []*models.GroupRecord

	for _, desc := range descriptors {
		if seen[desc.ExternalID] {
			duplicates++
			continue
		}
		seen[desc.ExternalID] = true

		exists, err := d.storage.ExistsByExternalID(ctx, desc.ExternalID)
		if err != nil {
			return persisted, duplicates, fmt.Errorf("duplicate check for group %d: %w", desc.ExternalID, err)
		}
		if exists {
			duplicates++
			continue
		}

		records = append(records, &models.GroupRecord{
			ID:          common.NewGroupRecordID(),
			ExternalID:  desc.ExternalID,
			Name:        desc.Name,
			ScreenName:  desc.ScreenName,
			MemberCount: desc.MemberCount,
			Closed:      desc.Closed,
			TaskID:      taskID,
			CreatedAt:   now,
		})
	}

	if len(records) > 0 {
		inserted, err := d.storage.BulkInsert(ctx, records)
		if err != nil {
			return persisted, duplicates, fmt.Errorf("persisting %d groups: %w", len(records), err)
		}
		persisted = inserted
		// Lost a race with a concurrent task on some ids.
		duplicates += len(records) - inserted
	}

	d.logger.Debug().
		Str("task_id", taskID).
		Int("persisted", persisted).
		Int("duplicates", duplicates).
		Msg("Classified resolved groups")

	return persisted, duplicates, nil
}
