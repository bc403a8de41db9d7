package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

// ErrAssetReferenced is returned when deleting an asset that still has tracking records.
var ErrAssetReferenced = errors.New("asset has tracking records")

// Store is the persistence the asset service needs.
type Store interface {
	repository.AssetRepository
	repository.TrackingRepository
}

// Service manages the asset registry and its movement log.
type Service struct {
	store  Store
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires an asset service. Dates default to today in loc.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, now: time.Now, loc: loc, logger: logger}
}

// List returns every asset.
func (s *Service) List(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Get fetches one asset.
func (s *Service) Get(ctx context.Context, assetID string) (models.Asset, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return models.Asset{}, fmt.Errorf("load asset: %w", err)
	}
	return asset, nil
}

// Create registers an asset under its user supplied id.
func (s *Service) Create(ctx context.Context, asset models.Asset) (models.Asset, error) {
	if err := normalizeAsset(&asset); err != nil {
		return models.Asset{}, err
	}
	asset.Meta = models.Meta{}

	saved, err := s.store.SaveAsset(ctx, asset)
	if err != nil {
		return models.Asset{}, fmt.Errorf("create asset: %w", err)
	}
	s.logger.Info("asset registered", zap.String("asset_id", saved.AssetID), zap.String("status", string(saved.Status)))
	return saved, nil
}

// Update replaces the asset stored under assetID. asset.Version must match.
func (s *Service) Update(ctx context.Context, assetID string, asset models.Asset) (models.Asset, error) {
	asset.AssetID = assetID
	if err := normalizeAsset(&asset); err != nil {
		return models.Asset{}, err
	}
	if asset.Version <= 0 {
		return models.Asset{}, models.Invalidf("version is required")
	}

	saved, err := s.store.SaveAsset(ctx, asset)
	if err != nil {
		return models.Asset{}, fmt.Errorf("update asset: %w", err)
	}
	return saved, nil
}

// Delete removes an asset that has no tracking records.
func (s *Service) Delete(ctx context.Context, assetID string) error {
	records, err := s.store.ListTrackingRecords(ctx, repository.TrackingFilter{AssetID: assetID})
	if err != nil {
		return fmt.Errorf("list tracking records: %w", err)
	}
	if len(records) > 0 {
		return fmt.Errorf("asset %s has %d tracking records: %w", assetID, len(records), ErrAssetReferenced)
	}
	if err := s.store.DeleteAsset(ctx, assetID); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	s.logger.Info("asset deleted", zap.String("asset_id", assetID))
	return nil
}

// Record logs an asset movement and moves the asset to the matching status.
func (s *Service) Record(ctx context.Context, record models.TrackingRecord) (models.TrackingRecord, error) {
	if err := s.normalizeRecord(&record); err != nil {
		return models.TrackingRecord{}, err
	}

	asset, err := s.store.GetAsset(ctx, record.AssetID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.TrackingRecord{}, models.Invalidf("unknown asset %q", record.AssetID)
	}
	if err != nil {
		return models.TrackingRecord{}, fmt.Errorf("load asset: %w", err)
	}

	record.ID = uuid.NewString()
	record.Meta = models.Meta{}
	saved, err := s.store.SaveTrackingRecord(ctx, record)
	if err != nil {
		return models.TrackingRecord{}, fmt.Errorf("save tracking record: %w", err)
	}

	switch record.TransactionType {
	case models.TransactionOutward:
		asset.Status = models.AssetInUse
		asset.IssuedTo = record.VendorSentTo
		asset.IssueDate = record.Date
		asset.ExpectedReturnDate = record.ReturnDate
		asset.ReturnedDate = ""
	case models.TransactionInward:
		asset.Status = models.AssetAvailable
		asset.ReturnedDate = record.Date
	}
	if _, err := s.store.SaveAsset(ctx, asset); err != nil {
		// The movement log must match the asset status.
		if delErr := s.store.DeleteTrackingRecord(ctx, saved.ID); delErr != nil {
			s.logger.Error("failed to withdraw tracking record after asset update failure",
				zap.String("record_id", saved.ID),
				zap.String("asset_id", asset.AssetID),
				zap.Error(delErr))
		}
		return models.TrackingRecord{}, fmt.Errorf("update asset %s after %s movement: %w", asset.AssetID, record.TransactionType, err)
	}

	s.logger.Info("asset movement recorded",
		zap.String("asset_id", saved.AssetID),
		zap.String("type", string(saved.TransactionType)),
		zap.String("date", saved.Date))
	return saved, nil
}

// ListRecords returns the tracking records matching filter.
func (s *Service) ListRecords(ctx context.Context, filter repository.TrackingFilter) ([]models.TrackingRecord, error) {
	if filter.TransactionType != "" && !validType(filter.TransactionType) {
		return nil, models.Invalidf("transaction_type must be outward or inward")
	}
	records, err := s.store.ListTrackingRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tracking records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes one tracking record. The asset status is left as is.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if err := s.store.DeleteTrackingRecord(ctx, id); err != nil {
		return fmt.Errorf("delete tracking record: %w", err)
	}
	return nil
}

func normalizeAsset(a *models.Asset) error {
	a.AssetID = strings.TrimSpace(a.AssetID)
	a.Name = strings.TrimSpace(a.Name)
	a.SerialNumber = strings.TrimSpace(a.SerialNumber)
	a.IssuedTo = strings.TrimSpace(a.IssuedTo)
	if a.AssetID == "" {
		return models.Invalidf("asset_id is required")
	}
	if a.Name == "" {
		return models.Invalidf("asset name is required")
	}
	if a.Status == "" {
		a.Status = models.AssetAvailable
	}
	if !a.Status.Valid() {
		return models.Invalidf("status %q must be one of available, in-use, maintenance, retired", a.Status)
	}

	for _, field := range []*string{&a.IssueDate, &a.ExpectedReturnDate, &a.ReturnedDate} {
		if err := normalizeDate(field); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) normalizeRecord(r *models.TrackingRecord) error {
	r.AssetID = strings.TrimSpace(r.AssetID)
	r.VendorSentTo = strings.TrimSpace(r.VendorSentTo)
	r.ReceivedFrom = strings.TrimSpace(r.ReceivedFrom)
	r.IssuedBy = strings.TrimSpace(r.IssuedBy)
	r.ReceivedBy = strings.TrimSpace(r.ReceivedBy)
	r.Purpose = strings.TrimSpace(r.Purpose)

	if r.AssetID == "" {
		return models.Invalidf("asset_id is required")
	}

	switch r.TransactionType {
	case models.TransactionOutward:
		if r.VendorSentTo == "" || r.IssuedBy == "" {
			return models.Invalidf("outward records need vendor_sent_to and issued_by")
		}
		if r.ReceivedFrom != "" || r.ReceivedBy != "" {
			return models.Invalidf("outward records cannot set received_from or received_by")
		}
	case models.TransactionInward:
		if r.ReceivedFrom == "" || r.ReceivedBy == "" {
			return models.Invalidf("inward records need received_from and received_by")
		}
		if r.VendorSentTo != "" || r.IssuedBy != "" {
			return models.Invalidf("inward records cannot set vendor_sent_to or issued_by")
		}
	default:
		return models.Invalidf("transaction_type must be outward or inward")
	}

	if strings.TrimSpace(r.Date) == "" {
		r.Date = models.FormatDate(s.now().In(s.loc))
	}
	if err := normalizeDate(&r.Date); err != nil {
		return err
	}
	return normalizeDate(&r.ReturnDate)
}

func normalizeDate(value *string) error {
	v := strings.TrimSpace(*value)
	if v == "" {
		*value = ""
		return nil
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return models.Invalidf("%q is not a date (YYYY-MM-DD)", v)
	}
	*value = models.FormatDate(d)
	return nil
}

func validType(t models.TransactionType) bool {
	return t == models.TransactionOutward || t == models.TransactionInward
}
