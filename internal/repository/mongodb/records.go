package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

// ListChallans returns every challan in creation order.
func (r *MongoDBRepository) ListChallans(ctx context.Context) ([]models.Challan, error) {
	return r.challans.list(ctx, nil)
}

// GetChallan fetches a challan by DC number.
func (r *MongoDBRepository) GetChallan(ctx context.Context, dcNumber string) (models.Challan, error) {
	return r.challans.get(ctx, dcNumber)
}

// SaveChallan inserts or compare-and-replaces a challan.
func (r *MongoDBRepository) SaveChallan(ctx context.Context, challan models.Challan) (models.Challan, error) {
	return r.challans.save(ctx, challan, r.now())
}

// DeleteChallan removes a challan.
func (r *MongoDBRepository) DeleteChallan(ctx context.Context, dcNumber string) error {
	return r.challans.delete(ctx, dcNumber)
}

func (r *MongoDBRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	return r.projects.list(ctx, nil)
}

func (r *MongoDBRepository) GetProject(ctx context.Context, id string) (models.Project, error) {
	return r.projects.get(ctx, id)
}

func (r *MongoDBRepository) SaveProject(ctx context.Context, project models.Project) (models.Project, error) {
	return r.projects.save(ctx, project, r.now())
}

func (r *MongoDBRepository) DeleteProject(ctx context.Context, id string) error {
	return r.projects.delete(ctx, id)
}

func (r *MongoDBRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	return r.clients.list(ctx, nil)
}

func (r *MongoDBRepository) GetClient(ctx context.Context, id string) (models.Client, error) {
	return r.clients.get(ctx, id)
}

func (r *MongoDBRepository) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	return r.clients.save(ctx, client, r.now())
}

func (r *MongoDBRepository) DeleteClient(ctx context.Context, id string) error {
	return r.clients.delete(ctx, id)
}

func (r *MongoDBRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	return r.locations.list(ctx, nil)
}

func (r *MongoDBRepository) GetLocation(ctx context.Context, id string) (models.Location, error) {
	return r.locations.get(ctx, id)
}

func (r *MongoDBRepository) SaveLocation(ctx context.Context, location models.Location) (models.Location, error) {
	return r.locations.save(ctx, location, r.now())
}

func (r *MongoDBRepository) DeleteLocation(ctx context.Context, id string) error {
	return r.locations.delete(ctx, id)
}

func (r *MongoDBRepository) ListAssets(ctx context.Context) ([]models.Asset, error) {
	return r.assets.list(ctx, nil)
}

func (r *MongoDBRepository) GetAsset(ctx context.Context, assetID string) (models.Asset, error) {
	return r.assets.get(ctx, assetID)
}

func (r *MongoDBRepository) SaveAsset(ctx context.Context, asset models.Asset) (models.Asset, error) {
	return r.assets.save(ctx, asset, r.now())
}

func (r *MongoDBRepository) DeleteAsset(ctx context.Context, assetID string) error {
	return r.assets.delete(ctx, assetID)
}

// ListTrackingRecords returns movement records matching filter.
func (r *MongoDBRepository) ListTrackingRecords(ctx context.Context, filter repository.TrackingFilter) ([]models.TrackingRecord, error) {
	query := bson.M{}
	if filter.AssetID != "" {
		query["asset_id"] = filter.AssetID
	}
	if filter.TransactionType != "" {
		query["transaction_type"] = filter.TransactionType
	}
	return r.tracking.list(ctx, query)
}

func (r *MongoDBRepository) GetTrackingRecord(ctx context.Context, id string) (models.TrackingRecord, error) {
	return r.tracking.get(ctx, id)
}

func (r *MongoDBRepository) SaveTrackingRecord(ctx context.Context, record models.TrackingRecord) (models.TrackingRecord, error) {
	return r.tracking.save(ctx, record, r.now())
}

func (r *MongoDBRepository) DeleteTrackingRecord(ctx context.Context, id string) error {
	return r.tracking.delete(ctx, id)
}

// SaveOverdueDigest saves a reminder snapshot to the database.
func (r *MongoDBRepository) SaveOverdueDigest(ctx context.Context, digest models.OverdueDigest) error {
	collection := r.db.Collection(digestsCollection)
	_, err := collection.InsertOne(ctx, digest)
	if err != nil {
		return fmt.Errorf("failed to insert overdue digest: %w", err)
	}
	return nil
}

// ListOverdueDigests returns the latest reminder snapshots.
func (r *MongoDBRepository) ListOverdueDigests(ctx context.Context, limit int) ([]models.OverdueDigest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.db.Collection(digestsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find overdue digests: %w", err)
	}

	out := make([]models.OverdueDigest, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode overdue digests: %w", err)
	}
	return out, nil
}
