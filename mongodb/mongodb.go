// Package mongodb provides a MongoDB implementation of httpcache.Store.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config holds the configuration for creating a MongoDB store.
type Config struct {
	// URI is the MongoDB connection URI (e.g., "mongodb://localhost:27017").
	// Required field.
	URI string

	// Database is the name of the database to use for caching.
	// Required field.
	Database string

	// Collection is the name of the collection to use for caching.
	// Optional - defaults to "httpcache".
	Collection string

	// KeyPrefix is a prefix added to all cache keys.
	// Optional - defaults to "cache:".
	KeyPrefix string

	// Timeout is the timeout for database operations.
	// Optional - defaults to 5 seconds.
	Timeout time.Duration

	// TTL is the time-to-live for stored documents. If set, a TTL index is
	// created on the createdAt field. Zero disables expiry.
	TTL time.Duration

	// ClientOptions are additional options to pass to mongo.Connect.
	// Optional.
	ClientOptions *options.ClientOptions
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Collection: "httpcache",
		KeyPrefix:  "cache:",
		Timeout:    5 * time.Second,
	}
}

// document is the shape of a stored record.
type document struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Store is an implementation of httpcache.Store that keeps values in a
// MongoDB collection keyed by _id.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	keyPrefix  string
	timeout    time.Duration
}

// New creates a Store connected per config, creating the TTL index when
// requested. The caller should Close the store when done.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb: URI is required")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("mongodb: database name is required")
	}
	if config.Collection == "" {
		config.Collection = DefaultConfig().Collection
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultConfig().KeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	clientOpts := config.ClientOptions
	if clientOpts == nil {
		clientOpts = options.Client()
	}
	clientOpts.ApplyURI(config.URI)

	connectCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)

	if config.TTL > 0 {
		indexCtx, cancelIndex := context.WithTimeout(ctx, config.Timeout)
		defer cancelIndex()
		_, err = collection.Indexes().CreateOne(indexCtx, mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(config.TTL.Seconds())),
		})
		if err != nil {
			_ = client.Disconnect(ctx) //nolint:errcheck // already failing
			return nil, fmt.Errorf("mongodb: creating TTL index: %w", err)
		}
	}

	return &Store{
		client:     client,
		collection: collection,
		keyPrefix:  config.KeyPrefix,
		timeout:    config.Timeout,
	}, nil
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

// Get returns the value stored under key if present.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": s.key(key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongodb cache get failed for key %q: %w", key, err)
	}
	return doc.Value, true, nil
}

// Set stores value under key, replacing any existing document.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := document{Key: s.key(key), Value: value, CreatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return fmt.Errorf("mongodb cache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": s.key(key)}); err != nil {
		return fmt.Errorf("mongodb cache delete failed for key %q: %w", key, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
