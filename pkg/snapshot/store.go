package snapshot

import (
	"context"
	"errors"
	"fmt"
)

// Store persists encoded snapshot documents by name.
//
// Implementations:
//   - [FileStore]: one JSON file per snapshot in a directory
//   - [RedisStore]: one key per snapshot
//   - [MongoStore]: one document per snapshot
type Store interface {
	// Load returns the stored bytes for name. ok is false if none exist.
	Load(ctx context.Context, name string) (data []byte, ok bool, err error)

	// Save replaces the snapshot stored under name.
	Save(ctx context.Context, name string, data []byte) error

	// List returns the names of all stored snapshots in sorted order.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown snapshot backend")

// Options selects and configures a [Store].
type Options struct {
	// Backend is one of "file" (default), "redis" or "mongo".
	Backend string

	Dir           string
	RedisURL      string
	MongoURI      string
	MongoDatabase string
}

// Open creates the store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{URL: opts.RedisURL})
	case BackendMongo:
		return NewMongoStore(ctx, MongoConfig{URI: opts.MongoURI, Database: opts.MongoDatabase})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Load reads and decodes the snapshot stored under name. It returns nil
// without error when none exists.
func Load(ctx context.Context, store Store, name, recordsKey string) (*Document, error) {
	data, ok, err := store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return Decode(data, recordsKey)
}

// Save encodes doc and stores it under name.
func Save(ctx context.Context, store Store, name string, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}
