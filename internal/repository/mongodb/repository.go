package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

const (
	challansCollection  = "challans"
	projectsCollection  = "projects"
	clientsCollection   = "clients"
	locationsCollection = "locations"
	assetsCollection    = "assets"
	trackingCollection  = "tracking_records"
	digestsCollection   = "overdue_digests"
)

// MongoDBRepository implements repository.Store with one collection per record kind.
type MongoDBRepository struct {
	client    *mongo.Client
	db        *mongo.Database
	logger    *zap.Logger
	now       func() time.Time
	challans  collection[models.Challan, *models.Challan]
	projects  collection[models.Project, *models.Project]
	clients   collection[models.Client, *models.Client]
	locations collection[models.Location, *models.Location]
	assets    collection[models.Asset, *models.Asset]
	tracking  collection[models.TrackingRecord, *models.TrackingRecord]
}

// Verify interface compliance
var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects to MongoDB and prepares the collections.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	r := &MongoDBRepository{
		client: client,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	r.challans = collection[models.Challan, *models.Challan]{name: "challan", coll: db.Collection(challansCollection),
		key: func(c *models.Challan) string { return c.DCNumber }}
	r.projects = collection[models.Project, *models.Project]{name: "project", coll: db.Collection(projectsCollection),
		key: func(p *models.Project) string { return p.ID }}
	r.clients = collection[models.Client, *models.Client]{name: "client", coll: db.Collection(clientsCollection),
		key: func(c *models.Client) string { return c.ID }}
	r.locations = collection[models.Location, *models.Location]{name: "location", coll: db.Collection(locationsCollection),
		key: func(l *models.Location) string { return l.ID }}
	r.assets = collection[models.Asset, *models.Asset]{name: "asset", coll: db.Collection(assetsCollection),
		key: func(a *models.Asset) string { return a.AssetID }}
	r.tracking = collection[models.TrackingRecord, *models.TrackingRecord]{name: "tracking record", coll: db.Collection(trackingCollection),
		key: func(t *models.TrackingRecord) string { return t.ID }}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("mongodb repository ready", zap.String("database", dbName))
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		challansCollection: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "client", Value: 1}}},
		},
		trackingCollection: {
			{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		digestsCollection: {
			{Keys: bson.D{{Key: "generated_at", Value: -1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
