// Package mongo persists guardianpaws snapshots as one document per bucket.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardianpaws/internal/infra/persistence/snapshot"
	"guardianpaws/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "guardianpaws"
	// StateCollection holds the bucket documents.
	StateCollection = "state"
)

var _ snapshot.Backend = (*Backend)(nil)

type stateDocument struct {
	Bucket    string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Backend stores bucket payloads in the state collection.
type Backend struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenBackend connects to uri and pings the deployment.
func OpenBackend(ctx context.Context, uri, database string) (*Backend, error) {
	if database == "" {
		database = DefaultDatabase
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Backend{
		client:     client,
		collection: client.Database(database).Collection(StateCollection),
	}, nil
}

// Load implements snapshot.Backend.
func (b *Backend) Load(ctx context.Context, bucket string) ([]byte, error) {
	var doc stateDocument
	err := b.collection.FindOne(ctx, bson.M{"_id": bucket}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", bucket, err)
	}
	return []byte(doc.Payload), nil
}

// Save implements snapshot.Backend. Each bucket is upserted independently;
// standalone deployments do not support multi-document transactions.
func (b *Backend) Save(ctx context.Context, buckets []snapshot.Bucket) error {
	now := time.Now().UTC()
	for _, bucket := range buckets {
		doc := stateDocument{Bucket: bucket.Name, Payload: string(bucket.Payload), UpdatedAt: now}
		_, err := b.collection.ReplaceOne(ctx, bson.M{"_id": bucket.Name}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("upsert %s: %w", bucket.Name, err)
		}
	}
	return nil
}

// Close implements snapshot.Backend.
func (b *Backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}

// NewStore opens a Mongo-backed store and hydrates it from any existing snapshot.
func NewStore(ctx context.Context, uri, database string, engine *domain.RulesEngine, opts ...snapshot.Option) (*snapshot.Store, error) {
	backend, err := OpenBackend(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	store, err := snapshot.Open(ctx, backend, engine, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}
