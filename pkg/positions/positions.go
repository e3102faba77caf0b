// Package positions persists the client-owned coordinates of vertices.
//
// The backend never stores where a vertex sits on the canvas. A position
// store keeps those coordinates between editor sessions so a reloaded graph
// opens the way it was left. Backends:
//
//   - [FileStore]: a JSON file on local disk (default for the CLI)
//   - [RedisStore]: one hash per graph in Redis
//   - [MongoStore]: one document per vertex in MongoDB
//   - [NullStore]: remembers nothing
//
// Missing ids are simply absent from [Store.Load] results; callers fall
// back to their seed position.
package positions

import (
	"context"
	"path/filepath"
	"time"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/observability"
)

// Position is a vertex's top-left corner in editor units.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Store loads and saves vertex positions keyed by vertex id.
type Store interface {
	// Load returns the stored positions of the given ids. Unknown ids are
	// omitted from the result.
	Load(ctx context.Context, ids []string) (map[string]Position, error)

	// Save stores positions, overwriting earlier values for the same ids.
	Save(ctx context.Context, positions map[string]Position) error

	// Close releases any connection held by the store.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a position store.
type Config struct {
	Backend string

	Dir string // file

	RedisAddr string // redis
	RedisKey  string

	MongoURI        string // mongo
	MongoDatabase   string
	MongoCollection string

	Timeout time.Duration // connect timeout for redis and mongo
}

// Open creates the store selected by cfg.Backend. An empty backend is
// treated as "none".
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendNone:
		return NullStore{}, nil
	case BackendFile:
		s, err = NewFileStore(filepath.Join(cfg.Dir, DefaultFileName))
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisKey, cfg.Timeout)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.Timeout)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown position backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Observe(s, cfg.Backend), nil
}

// Observe wraps s so that loads and saves are reported to the registered
// [observability.PositionHooks] under the given backend name.
func Observe(s Store, backend string) Store {
	return &observed{Store: s, backend: backend}
}

type observed struct {
	Store
	backend string
}

func (o *observed) Load(ctx context.Context, ids []string) (map[string]Position, error) {
	out, err := o.Store.Load(ctx, ids)
	observability.Positions().OnLoad(ctx, o.backend, len(ids), len(out), err)
	return out, err
}

func (o *observed) Save(ctx context.Context, positions map[string]Position) error {
	err := o.Store.Save(ctx, positions)
	observability.Positions().OnSave(ctx, o.backend, len(positions), err)
	return err
}
