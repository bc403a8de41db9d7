package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/challans/internal/domain/models"
)

var (
	// ErrNotFound is returned when no record exists for the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when creating a record whose key is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when the stored version differs from the one being replaced.
	ErrConflict = errors.New("record was modified concurrently")
)

// Save semantics shared by every collection: a record with Version 0 is
// inserted and fails with ErrDuplicate when the key exists; a record with
// Version > 0 replaces the stored one only if the versions match. The
// returned record carries the new version and timestamps.

// ChallanRepository persists challans keyed by DC number.
type ChallanRepository interface {
	ListChallans(ctx context.Context) ([]models.Challan, error)
	GetChallan(ctx context.Context, dcNumber string) (models.Challan, error)
	SaveChallan(ctx context.Context, challan models.Challan) (models.Challan, error)
	DeleteChallan(ctx context.Context, dcNumber string) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	SaveProject(ctx context.Context, project models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// ClientRepository persists clients.
type ClientRepository interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (models.Client, error)
	SaveClient(ctx context.Context, client models.Client) (models.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// LocationRepository persists delivery locations.
type LocationRepository interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	GetLocation(ctx context.Context, id string) (models.Location, error)
	SaveLocation(ctx context.Context, location models.Location) (models.Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// AssetRepository persists the asset registry keyed by asset id.
type AssetRepository interface {
	ListAssets(ctx context.Context) ([]models.Asset, error)
	GetAsset(ctx context.Context, assetID string) (models.Asset, error)
	SaveAsset(ctx context.Context, asset models.Asset) (models.Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// TrackingFilter narrows tracking record listings. Empty fields match everything.
type TrackingFilter struct {
	AssetID         string
	TransactionType models.TransactionType
}

// TrackingRepository persists asset movement records.
type TrackingRepository interface {
	ListTrackingRecords(ctx context.Context, filter TrackingFilter) ([]models.TrackingRecord, error)
	GetTrackingRecord(ctx context.Context, id string) (models.TrackingRecord, error)
	SaveTrackingRecord(ctx context.Context, record models.TrackingRecord) (models.TrackingRecord, error)
	DeleteTrackingRecord(ctx context.Context, id string) error
}

// DigestRepository stores the overdue reminders produced by the scheduler.
type DigestRepository interface {
	SaveOverdueDigest(ctx context.Context, digest models.OverdueDigest) error
	ListOverdueDigests(ctx context.Context, limit int) ([]models.OverdueDigest, error)
}

// Store bundles every collection behind one backend.
type Store interface {
	ChallanRepository
	ProjectRepository
	ClientRepository
	LocationRepository
	AssetRepository
	TrackingRepository
	DigestRepository
	Close(ctx context.Context) error
}
