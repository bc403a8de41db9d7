package assets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
	"github.com/mamadbah2/challans/internal/repository/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(memory.NewStore(), time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seedAsset(t *testing.T, svc *Service) models.Asset {
	t.Helper()
	asset, err := svc.Create(context.Background(), models.Asset{AssetID: "LAP-001", Name: "Laptop"})
	if err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return asset
}

func TestCreateAsset(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	asset := seedAsset(t, svc)
	if asset.Status != models.AssetAvailable {
		t.Fatalf("status = %q, want available", asset.Status)
	}
	if _, err := svc.Create(ctx, models.Asset{AssetID: "LAP-001", Name: "Again"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}

	tests := []struct {
		name  string
		asset models.Asset
	}{
		{"missing id", models.Asset{Name: "Drill"}},
		{"missing name", models.Asset{AssetID: "DR-1"}},
		{"bad status", models.Asset{AssetID: "DR-1", Name: "Drill", Status: "lost"}},
		{"bad date", models.Asset{AssetID: "DR-1", Name: "Drill", IssueDate: "May 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.asset); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestUpdateAsset(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	asset := seedAsset(t, svc)

	asset.Status = models.AssetMaintenance
	updated, err := svc.Update(ctx, asset.AssetID, asset)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.AssetMaintenance || updated.Version != 2 {
		t.Fatalf("updated = %+v", updated)
	}
	if _, err := svc.Update(ctx, asset.AssetID, asset); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("stale err = %v", err)
	}
}

func TestRecordOutwardAndInward(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	asset := seedAsset(t, svc)

	out, err := svc.Record(ctx, models.TrackingRecord{
		AssetID:         asset.AssetID,
		TransactionType: models.TransactionOutward,
		VendorSentTo:    "Acme Repairs",
		IssuedBy:        "Ravi",
		ReturnDate:      "2025-05-10",
	})
	if err != nil {
		t.Fatalf("outward: %v", err)
	}
	if out.ID == "" || out.Date != "2025-05-01" {
		t.Fatalf("record = %+v", out)
	}

	got, _ := svc.Get(ctx, asset.AssetID)
	if got.Status != models.AssetInUse || got.IssuedTo != "Acme Repairs" || got.ExpectedReturnDate != "2025-05-10" || got.IssueDate != "2025-05-01" {
		t.Fatalf("asset after outward = %+v", got)
	}

	if _, err := svc.Record(ctx, models.TrackingRecord{
		AssetID:         asset.AssetID,
		TransactionType: models.TransactionInward,
		ReceivedFrom:    "Acme Repairs",
		ReceivedBy:      "Meena",
		Date:            "2025-05-08",
	}); err != nil {
		t.Fatalf("inward: %v", err)
	}
	got, _ = svc.Get(ctx, asset.AssetID)
	if got.Status != models.AssetAvailable || got.ReturnedDate != "2025-05-08" {
		t.Fatalf("asset after inward = %+v", got)
	}

	outward, err := svc.ListRecords(ctx, repository.TrackingFilter{AssetID: asset.AssetID, TransactionType: models.TransactionOutward})
	if err != nil {
		t.Fatal(err)
	}
	if len(outward) != 1 {
		t.Fatalf("outward records = %d", len(outward))
	}
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	asset := seedAsset(t, svc)

	tests := []struct {
		name   string
		record models.TrackingRecord
	}{
		{"unknown type", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: "sideways"}},
		{"outward without vendor", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: models.TransactionOutward, IssuedBy: "Ravi"}},
		{"outward with receiver", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: models.TransactionOutward, VendorSentTo: "X", IssuedBy: "Ravi", ReceivedBy: "Meena"}},
		{"inward without receiver", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: models.TransactionInward, ReceivedFrom: "X"}},
		{"inward with vendor", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: models.TransactionInward, ReceivedFrom: "X", ReceivedBy: "Meena", VendorSentTo: "Y"}},
		{"unknown asset", models.TrackingRecord{AssetID: "nope", TransactionType: models.TransactionInward, ReceivedFrom: "X", ReceivedBy: "Meena"}},
		{"bad return date", models.TrackingRecord{AssetID: asset.AssetID, TransactionType: models.TransactionOutward, VendorSentTo: "X", IssuedBy: "Ravi", ReturnDate: "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Record(ctx, tt.record); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("err = %v", err)
			}
		})
	}

	records, _ := svc.ListRecords(ctx, repository.TrackingFilter{})
	if len(records) != 0 {
		t.Fatalf("invalid records were stored: %d", len(records))
	}
}

func TestDeleteAssetBlockedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	asset := seedAsset(t, svc)

	rec, err := svc.Record(ctx, models.TrackingRecord{
		AssetID:         asset.AssetID,
		TransactionType: models.TransactionOutward,
		VendorSentTo:    "Acme Repairs",
		IssuedBy:        "Ravi",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, asset.AssetID); !errors.Is(err, ErrAssetReferenced) {
		t.Fatalf("err = %v, want ErrAssetReferenced", err)
	}
	if err := svc.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, asset.AssetID); err != nil {
		t.Fatalf("Delete after clearing records: %v", err)
	}
	if _, err := svc.Get(ctx, asset.AssetID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListRecordsRejectsUnknownType(t *testing.T) {
	_, err := newService(t).ListRecords(context.Background(), repository.TrackingFilter{TransactionType: "up"})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

type conflictingAssetStore struct {
	*memory.Store
}

func (s conflictingAssetStore) SaveAsset(ctx context.Context, asset models.Asset) (models.Asset, error) {
	if asset.Version > 0 {
		return models.Asset{}, repository.ErrConflict
	}
	return s.Store.SaveAsset(ctx, asset)
}

func TestRecordWithdrawnWhenAssetUpdateFails(t *testing.T) {
	ctx := context.Background()
	store := conflictingAssetStore{Store: memory.NewStore()}
	svc := NewService(store, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC) }
	asset := seedAsset(t, svc)

	_, err := svc.Record(ctx, models.TrackingRecord{
		AssetID:         asset.AssetID,
		TransactionType: models.TransactionOutward,
		VendorSentTo:    "Acme Repairs",
		IssuedBy:        "Ravi",
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	records, err := svc.ListRecords(ctx, repository.TrackingFilter{AssetID: asset.AssetID})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("tracking records = %d, want none after a failed movement", len(records))
	}
	got, _ := svc.Get(ctx, asset.AssetID)
	if got.Status != models.AssetAvailable {
		t.Fatalf("asset status = %q, want available", got.Status)
	}
}
