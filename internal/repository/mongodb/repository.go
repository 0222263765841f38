package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

const lookupsCollection = "inventory_lookups"

// LookupRepository stores one audit document per inventory lookup. Only the
// filter criteria and row counts are kept, never table data.
type LookupRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewLookupRepository connects to MongoDB and ensures the lookup indexes.
func NewLookupRepository(ctx context.Context, uri string, dbName string) (*LookupRepository, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &LookupRepository{
		client:   client,
		dbName:   dbName,
		collName: lookupsCollection,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return repo, nil
}

// RecordLookup inserts the audit document for one lookup.
func (r *LookupRepository) RecordLookup(ctx context.Context, event models.LookupEvent) error {
	_, err := r.collection().InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to insert lookup event: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *LookupRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *LookupRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

func (r *LookupRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create lookup indexes: %w", err)
	}
	return nil
}
