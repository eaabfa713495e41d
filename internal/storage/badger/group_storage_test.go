package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "badger-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func groupRecord(id string, externalID int64, taskID string) *models.GroupRecord {
	return &models.GroupRecord{
		ID:          id,
		ExternalID:  externalID,
		Name:        "Group",
		ScreenName:  "group",
		MemberCount: 100,
		TaskID:      taskID,
		CreatedAt:   time.Now(),
	}
}

func TestGroupStorage_BulkInsertAndExists(t *testing.T) {
	db := newTestDB(t)
	storage := NewGroupStorage(db, arbor.NewLogger())
	ctx := context.Background()

	exists, err := storage.ExistsByExternalID(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("group must not exist before insert")
	}

	inserted, err := storage.BulkInsert(ctx, []*models.GroupRecord{
		groupRecord("grp-1", 10, "task-1"),
		groupRecord("grp-2", 20, "task-1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	exists, err = storage.ExistsByExternalID(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("group must exist after insert")
	}

	count, err := storage.CountGroups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 groups, got %d", count)
	}
}

func TestGroupStorage_BulkInsertSkipsExistingKeys(t *testing.T) {
	db := newTestDB(t)
	storage := NewGroupStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if _, err := storage.BulkInsert(ctx, []*models.GroupRecord{groupRecord("grp-1", 10, "task-1")}); err != nil {
		t.Fatal(err)
	}

	inserted, err := storage.BulkInsert(ctx, []*models.GroupRecord{
		groupRecord("grp-1", 10, "task-2"), // same key, skipped
		groupRecord("grp-3", 30, "task-2"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", inserted)
	}
}

func TestGroupStorage_ListNewestFirstWithPaging(t *testing.T) {
	db := newTestDB(t)
	storage := NewGroupStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	records := []*models.GroupRecord{
		{ID: "grp-1", ExternalID: 1, TaskID: "t", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "grp-2", ExternalID: 2, TaskID: "t", CreatedAt: base.Add(-1 * time.Hour)},
		{ID: "grp-3", ExternalID: 3, TaskID: "t", CreatedAt: base},
	}
	if _, err := storage.BulkInsert(ctx, records); err != nil {
		t.Fatal(err)
	}

	page, err := storage.ListGroups(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page))
	}
	if page[0].ExternalID != 3 || page[1].ExternalID != 2 {
		t.Errorf("expected newest first [3 2], got [%d %d]", page[0].ExternalID, page[1].ExternalID)
	}

	page, err = storage.ListGroups(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ExternalID != 1 {
		t.Errorf("expected last page [1], got %+v", page)
	}
}

func TestGroupStorage_DeleteByTaskID(t *testing.T) {
	db := newTestDB(t)
	storage := NewGroupStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if _, err := storage.BulkInsert(ctx, []*models.GroupRecord{
		groupRecord("grp-1", 10, "task-1"),
		groupRecord("grp-2", 20, "task-1"),
		groupRecord("grp-3", 30, "task-2"),
	}); err != nil {
		t.Fatal(err)
	}

	removed, err := storage.DeleteByTaskID(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	count, _ := storage.CountGroups(ctx)
	if count != 1 {
		t.Fatalf("expected 1 remaining, got %d", count)
	}
}

func TestBadgerDB_ResetOnStartup(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "badger-reset-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logger := arbor.NewLogger()
	cfg := &common.BadgerConfig{Path: tmpDir + "/db"}

	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		t.Fatal(err)
	}
	storage := NewGroupStorage(db, logger)
	ctx := context.Background()

	if _, err := storage.BulkInsert(ctx, []*models.GroupRecord{groupRecord("grp-1", 10, "task-1")}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	cfg.ResetOnStartup = true
	db, err = NewBadgerDB(logger, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	storage = NewGroupStorage(db, logger)
	count, err := storage.CountGroups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected empty database after reset, got %d records", count)
	}
}
