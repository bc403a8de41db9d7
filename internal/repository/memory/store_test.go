package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

func TestStore_SaveChallan_VersionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	fixed := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	created, err := store.SaveChallan(ctx, models.Challan{DCNumber: "DSI/010525/001", Client: "Acme"})
	if err != nil {
		t.Fatalf("Failed to create challan: %v", err)
	}
	if created.Version != 1 {
		t.Errorf("Expected version 1, got %d", created.Version)
	}
	if !created.CreatedAt.Equal(fixed) || !created.UpdatedAt.Equal(fixed) {
		t.Errorf("Expected timestamps to be stamped, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	if _, err := store.SaveChallan(ctx, models.Challan{DCNumber: "DSI/010525/001"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	created.Client = "Acme Corp"
	updated, err := store.SaveChallan(ctx, created)
	if err != nil {
		t.Fatalf("Failed to update challan: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}

	// A writer still holding version 1 must not clobber version 2.
	if _, err := store.SaveChallan(ctx, created); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}

	stale := models.Challan{DCNumber: "DSI/010525/999", Meta: models.Meta{Version: 3}}
	if _, err := store.SaveChallan(ctx, stale); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_ChallanItemsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	items := []models.Item{{ItemID: "a", AssetName: "Laptop", Quantity: 1}}
	if _, err := store.SaveChallan(ctx, models.Challan{DCNumber: "DSI/010525/001", Items: items}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	items[0].AssetName = "Changed"

	got, err := store.GetChallan(ctx, "DSI/010525/001")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Items[0].AssetName != "Laptop" {
		t.Errorf("Expected stored item to be isolated from caller, got %s", got.Items[0].AssetName)
	}

	got.Items[0].AssetName = "Mutated"
	again, _ := store.GetChallan(ctx, "DSI/010525/001")
	if again.Items[0].AssetName != "Laptop" {
		t.Errorf("Expected reads to return copies, got %s", again.Items[0].AssetName)
	}
}

func TestStore_ListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, dc := range []string{"B/1/001", "A/1/001", "C/1/001"} {
		if _, err := store.SaveChallan(ctx, models.Challan{DCNumber: dc}); err != nil {
			t.Fatalf("Failed to save %s: %v", dc, err)
		}
	}
	if err := store.DeleteChallan(ctx, "A/1/001"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	list, _ := store.ListChallans(ctx)
	if len(list) != 2 || list[0].DCNumber != "B/1/001" || list[1].DCNumber != "C/1/001" {
		t.Errorf("Unexpected order: %+v", list)
	}

	if err := store.DeleteChallan(ctx, "A/1/001"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_ListTrackingRecordsFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	records := []models.TrackingRecord{
		{ID: "1", AssetID: "LAP-1", TransactionType: models.TransactionOutward},
		{ID: "2", AssetID: "LAP-1", TransactionType: models.TransactionInward},
		{ID: "3", AssetID: "PRJ-7", TransactionType: models.TransactionOutward},
	}
	for _, rec := range records {
		if _, err := store.SaveTrackingRecord(ctx, rec); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
	}

	testCases := []struct {
		name     string
		filter   repository.TrackingFilter
		expected int
	}{
		{"all", repository.TrackingFilter{}, 3},
		{"by asset", repository.TrackingFilter{AssetID: "LAP-1"}, 2},
		{"by type", repository.TrackingFilter{TransactionType: models.TransactionOutward}, 2},
		{"by both", repository.TrackingFilter{AssetID: "LAP-1", TransactionType: models.TransactionInward}, 1},
		{"no match", repository.TrackingFilter{AssetID: "NOPE"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.ListTrackingRecords(ctx, tc.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.expected {
				t.Errorf("Expected %d records, got %d", tc.expected, len(got))
			}
		})
	}
}

func TestStore_ListOverdueDigestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		digest := models.OverdueDigest{ID: string(rune('a' + i)), GeneratedAt: base.AddDate(0, 0, i)}
		if err := store.SaveOverdueDigest(ctx, digest); err != nil {
			t.Fatalf("Failed to save digest: %v", err)
		}
	}

	got, _ := store.ListOverdueDigests(ctx, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 digests, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("Unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}
