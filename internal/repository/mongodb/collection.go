package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

type record[T any] interface {
	*T
	Metadata() *models.Meta
}

// collection wraps a mongo collection whose documents are keyed by _id and
// carry a version field used for compare-and-replace.
type collection[T any, P record[T]] struct {
	name string
	coll *mongo.Collection
	key  func(*T) string
}

var insertionOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (c collection[T, P]) list(ctx context.Context, filter bson.M) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := c.coll.Find(ctx, filter, options.Find().SetSort(insertionOrder))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return out, nil
}

func (c collection[T, P]) get(ctx context.Context, key string) (T, error) {
	var out T
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, fmt.Errorf("%s %s: %w", c.name, key, repository.ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("find %s %s: %w", c.name, key, err)
	}
	return out, nil
}

func (c collection[T, P]) save(ctx context.Context, rec T, now time.Time) (T, error) {
	k := c.key(&rec)
	meta := P(&rec).Metadata()
	expected := meta.Version

	meta.Version = expected + 1
	meta.UpdatedAt = now

	if expected == 0 {
		meta.CreatedAt = now
		if _, err := c.coll.InsertOne(ctx, rec); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return rec, fmt.Errorf("%s %s: %w", c.name, k, repository.ErrDuplicate)
			}
			return rec, fmt.Errorf("insert %s %s: %w", c.name, k, err)
		}
		return rec, nil
	}

	current, err := c.get(ctx, k)
	if err != nil {
		return rec, err
	}
	meta.CreatedAt = P(&current).Metadata().CreatedAt

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": k, "version": expected}, rec)
	if err != nil {
		return rec, fmt.Errorf("replace %s %s: %w", c.name, k, err)
	}
	if res.MatchedCount == 0 {
		return rec, fmt.Errorf("%s %s at version %d: %w", c.name, k, expected, repository.ErrConflict)
	}
	return rec, nil
}

func (c collection[T, P]) delete(ctx context.Context, key string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.name, key, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", c.name, key, repository.ErrNotFound)
	}
	return nil
}
