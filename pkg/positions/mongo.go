package positions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/vertexflow/pkg/errors"
)

// Defaults for [NewMongoStore].
const (
	DefaultMongoDatabase   = "vertexflow"
	DefaultMongoCollection = "positions"
)

// MongoStore keeps one document per vertex: {_id: id, x, y}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type positionDoc struct {
	ID string  `bson:"_id"`
	X  float64 `bson:"x"`
	Y  float64 `bson:"y"`
}

// NewMongoStore connects to uri and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Load finds the documents whose _id is in ids.
func (s *MongoStore) Load(ctx context.Context, ids []string) (map[string]Position, error) {
	out := make(map[string]Position, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find positions")
	}
	var docs []positionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read positions")
	}
	for _, d := range docs {
		out[d.ID] = Position{X: d.X, Y: d.Y}
	}
	return out, nil
}

// Save upserts one document per id in a single unordered bulk write.
func (s *MongoStore) Save(ctx context.Context, positions map[string]Position) error {
	if len(positions) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(positions))
	for id, p := range positions {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(positionDoc{ID: id, X: p.X, Y: p.Y}).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save positions")
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
