package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const mongoCollection = "api_cache"

type mongoEntry struct {
	CacheKey  string    `bson:"cache_key"`
	Data      string    `bson:"data"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoCache stores entries in the api_cache collection. A TTL index lets MongoDB
// expire documents on its own; Get still treats a late document as a miss.
type MongoCache struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoCache(ctx context.Context, db *mongo.Database) (*MongoCache, error) {
	collection := db.Collection(mongoCollection)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cache_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create cache indexes: %w", err)
	}
	return &MongoCache{collection: collection, now: time.Now}, nil
}

func (c *MongoCache) Get(ctx context.Context, key string, dst interface{}) error {
	var entry mongoEntry
	err := c.collection.FindOne(ctx, bson.M{"cache_key": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry: %w", err)
	}

	if !c.now().Before(entry.ExpiresAt) {
		if _, err := c.collection.DeleteOne(ctx, bson.M{"cache_key": key}); err != nil {
			zap.L().Warn("Failed to delete expired cache entry", zap.String("key", key), zap.Error(err))
		}
		return ErrMiss
	}

	if err := json.Unmarshal([]byte(entry.Data), dst); err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return nil
}

func (c *MongoCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	now := c.now()
	entry := mongoEntry{CacheKey: key, Data: string(data), ExpiresAt: now.Add(ttl), CreatedAt: now}

	_, err = c.collection.ReplaceOne(ctx, bson.M{"cache_key": key}, entry, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *MongoCache) Clear(ctx context.Context) error {
	if _, err := c.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (c *MongoCache) Close() error {
	return nil
}
