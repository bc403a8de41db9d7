package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

// Store is an in-process implementation of repository.Store. It backs tests
// and the STORE_BACKEND=memory mode.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	challans  *collection[models.Challan, *models.Challan]
	projects  *collection[models.Project, *models.Project]
	clients   *collection[models.Client, *models.Client]
	locations *collection[models.Location, *models.Location]
	assets    *collection[models.Asset, *models.Asset]
	tracking  *collection[models.TrackingRecord, *models.TrackingRecord]
	digests   []models.OverdueDigest
}

// Verify interface compliance
var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now: time.Now,
		challans: newCollection[models.Challan, *models.Challan]("challan",
			func(c *models.Challan) string { return c.DCNumber }, cloneChallan),
		projects: newCollection[models.Project, *models.Project]("project",
			func(p *models.Project) string { return p.ID }, cloneProject),
		clients: newCollection[models.Client, *models.Client]("client",
			func(c *models.Client) string { return c.ID }, nil),
		locations: newCollection[models.Location, *models.Location]("location",
			func(l *models.Location) string { return l.ID }, nil),
		assets: newCollection[models.Asset, *models.Asset]("asset",
			func(a *models.Asset) string { return a.AssetID }, nil),
		tracking: newCollection[models.TrackingRecord, *models.TrackingRecord]("tracking record",
			func(r *models.TrackingRecord) string { return r.ID }, nil),
	}
}

// SetClock replaces the clock used for record timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func cloneChallan(c models.Challan) models.Challan {
	if c.Items != nil {
		items := make([]models.Item, len(c.Items))
		copy(items, c.Items)
		c.Items = items
	}
	return c
}

func cloneProject(p models.Project) models.Project {
	if p.Persons != nil {
		persons := make([]string, len(p.Persons))
		copy(persons, p.Persons)
		p.Persons = persons
	}
	return p
}

// ListChallans returns challans in the order they were created.
func (s *Store) ListChallans(ctx context.Context) ([]models.Challan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.challans.list(), nil
}

// GetChallan fetches one challan by DC number.
func (s *Store) GetChallan(ctx context.Context, dcNumber string) (models.Challan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.challans.get(dcNumber)
}

// SaveChallan inserts or replaces a challan.
func (s *Store) SaveChallan(ctx context.Context, challan models.Challan) (models.Challan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challans.save(challan, s.now())
}

// DeleteChallan removes a challan.
func (s *Store) DeleteChallan(ctx context.Context, dcNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challans.delete(dcNumber)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.list(), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.get(id)
}

func (s *Store) SaveProject(ctx context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects.save(project, s.now())
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects.delete(id)
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.list(), nil
}

func (s *Store) GetClient(ctx context.Context, id string) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.get(id)
}

func (s *Store) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients.save(client, s.now())
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients.delete(id)
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locations.list(), nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locations.get(id)
}

func (s *Store) SaveLocation(ctx context.Context, location models.Location) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations.save(location, s.now())
}

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations.delete(id)
}

func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assets.list(), nil
}

func (s *Store) GetAsset(ctx context.Context, assetID string) (models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assets.get(assetID)
}

func (s *Store) SaveAsset(ctx context.Context, asset models.Asset) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.save(asset, s.now())
}

func (s *Store) DeleteAsset(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.delete(assetID)
}

// ListTrackingRecords returns movement records matching filter in creation order.
func (s *Store) ListTrackingRecords(ctx context.Context, filter repository.TrackingFilter) ([]models.TrackingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TrackingRecord
	for _, rec := range s.tracking.list() {
		if filter.AssetID != "" && rec.AssetID != filter.AssetID {
			continue
		}
		if filter.TransactionType != "" && rec.TransactionType != filter.TransactionType {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) GetTrackingRecord(ctx context.Context, id string) (models.TrackingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracking.get(id)
}

func (s *Store) SaveTrackingRecord(ctx context.Context, record models.TrackingRecord) (models.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking.save(record, s.now())
}

func (s *Store) DeleteTrackingRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking.delete(id)
}

// SaveOverdueDigest appends a reminder snapshot.
func (s *Store) SaveOverdueDigest(ctx context.Context, digest models.OverdueDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests = append(s.digests, digest)
	return nil
}

// ListOverdueDigests returns the most recent digests first.
func (s *Store) ListOverdueDigests(ctx context.Context, limit int) ([]models.OverdueDigest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OverdueDigest, len(s.digests))
	copy(out, s.digests)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the memory store.
func (s *Store) Close(ctx context.Context) error {
	return nil
}
