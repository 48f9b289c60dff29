package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoDatabase is used when MongoConfig.Database is empty.
	DefaultMongoDatabase = "statsnap"

	// MongoCollection holds one document per snapshot name.
	MongoCollection = "snapshots"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore keeps each snapshot as a native BSON document:
//
//	{_id: <name>, updated_at: <date>, snapshot: {...}}
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoSnapshot struct {
	Name      string    `bson:"_id"`
	UpdatedAt time.Time `bson:"updated_at"`
	Snapshot  bson.D    `bson:"snapshot"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("MongoDB URI is required")
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(MongoCollection),
	}, nil
}

// Load implements [Store]. The document is rendered back as relaxed
// extended JSON, which keeps integers as plain JSON numbers.
func (s *MongoStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var doc mongoSnapshot
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find snapshot: %w", err)
	}
	data, err := bson.MarshalExtJSON(doc.Snapshot, false, false)
	if err != nil {
		return nil, false, fmt.Errorf("failed to render snapshot: %w", err)
	}
	return data, true, nil
}

// Save implements [Store].
func (s *MongoStore) Save(ctx context.Context, name string, data []byte) error {
	var body bson.D
	if err := bson.UnmarshalExtJSON(data, false, &body); err != nil {
		return fmt.Errorf("failed to convert snapshot to BSON: %w", err)
	}
	doc := mongoSnapshot{Name: name, UpdatedAt: time.Now().UTC(), Snapshot: body}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: name}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var row struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		names = append(names, row.Name)
	}
	return names, cur.Err()
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	if s.client != nil {
		return s.client.Disconnect(context.Background())
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
