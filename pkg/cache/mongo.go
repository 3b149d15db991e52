package cache

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

// DefaultMongoCollection is the collection holding cache documents.
const DefaultMongoCollection = "apiCache"

// MongoStore keeps one document per URL with a unique index on url.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

type mongoEntry struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	URL  string             `bson:"url"`
	Data string             `bson:"data"`
	Time time.Time          `bson:"time"`
}

// OpenMongo connects to uri and prepares the cache collection in database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect mongo cache")
	}
	s, err := NewMongoStore(ctx, client.Database(database).Collection(DefaultMongoCollection))
	if err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	s.client, s.owned = client, true
	return s, nil
}

// NewMongoStore uses coll and ensures the unique url index exists.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("url_unique"),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create mongo cache index")
	}
	return &MongoStore{coll: coll}, nil
}

// Load implements Store. A stale document is deleted only if it still
// carries the time that was read, so a concurrent Save survives.
func (s *MongoStore) Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error) {
	cur, err := s.coll.Find(ctx, bson.M{"url": url}, options.Find().SetLimit(2))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}

	rows := make([]Entry, len(docs))
	for i, d := range docs {
		rows[i] = Entry{URL: d.URL, Payload: d.Data, StoredAt: d.Time}
	}
	e, stale, err := pick(url, rows, cutoff)
	if err != nil {
		return nil, err
	}
	if stale {
		_, err := s.coll.DeleteOne(ctx, bson.M{"_id": docs[0].ID, "time": docs[0].Time})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache evict %s", url)
		}
		evicted(ctx, s.Name(), docs[0].Time, cutoff)
	}
	return e, nil
}

// Save implements Store with an upsert keyed by url.
func (s *MongoStore) Save(ctx context.Context, e Entry) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"url": e.URL},
		bson.M{"$set": bson.M{"data": e.Payload, "time": e.StoredAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache save %s", e.URL)
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, url string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"url": url}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache delete %s", url)
	}
	return nil
}

// Purge implements Store.
func (s *MongoStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"time": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	return int(res.DeletedCount), nil
}

// Clear implements Store.
func (s *MongoStore) Clear(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "cache clear")
	}
	return int(res.DeletedCount), nil
}

// Name implements Store.
func (s *MongoStore) Name() string { return "mongo" }

// Close disconnects the client if the store opened it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
