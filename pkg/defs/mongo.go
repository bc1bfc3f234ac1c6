package defs

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/httputil"
	"github.com/matzehuels/techtree/pkg/research"
)

// mongoRecord is the stored document shape. Tech levels are stored by name.
type mongoRecord struct {
	ID                  string   `bson:"_id"`
	Label               string   `bson:"label,omitempty"`
	Prerequisites       []string `bson:"prerequisites,omitempty"`
	HiddenPrerequisites []string `bson:"hidden_prerequisites,omitempty"`
	TechLevel           string   `bson:"tech_level,omitempty"`
	Source              string   `bson:"source,omitempty"`
	Finished            bool     `bson:"finished,omitempty"`
	Hint                float64  `bson:"hint,omitempty"`
	Order               int      `bson:"order"`
}

func (m mongoRecord) record() (*research.Record, error) {
	level, err := research.ParseTechLevel(m.TechLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "record %s", m.ID)
	}
	return &research.Record{
		ID:                  m.ID,
		Label:               m.Label,
		Prerequisites:       m.Prerequisites,
		HiddenPrerequisites: m.HiddenPrerequisites,
		TechLevel:           level,
		Source:              m.Source,
		Finished:            m.Finished,
		Hint:                m.Hint,
	}, nil
}

func toMongo(r *research.Record, order int) mongoRecord {
	m := mongoRecord{
		ID:                  r.ID,
		Label:               r.Label,
		Prerequisites:       r.Prerequisites,
		HiddenPrerequisites: r.HiddenPrerequisites,
		Source:              r.Source,
		Finished:            r.Finished,
		Hint:                r.Hint,
		Order:               order,
	}
	if r.TechLevel != research.Undefined {
		m.TechLevel = r.TechLevel.String()
	}
	return m
}

// MongoSource reads definitions from a MongoDB collection, ordered by the
// "order" field and then by id.
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// ConnectMongo connects to uri and returns a source over database.collection.
// Transient connection failures are retried with backoff.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoSource, error) {
	var client *mongo.Client
	err := httputil.RetryWithBackoff(ctx, func() error {
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			return httputil.Retryable(err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "connect to mongodb")
	}
	s := NewMongoSource(client.Database(database).Collection(collection))
	s.owned = true
	return s, nil
}

// NewMongoSource wraps an existing collection. Close leaves its client
// connected.
func NewMongoSource(coll *mongo.Collection) *MongoSource {
	return &MongoSource{client: coll.Database().Client(), coll: coll}
}

// Name returns "mongodb://<database>.<collection>".
func (s *MongoSource) Name() string {
	return fmt.Sprintf("mongodb://%s.%s", s.coll.Database().Name(), s.coll.Name())
}

// Load reads every document of the collection.
func (s *MongoSource) Load(ctx context.Context) ([]*research.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "query %s", s.Name())
	}
	defer cur.Close(ctx)

	var records []*research.Record
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
		}
		r, err := doc.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "read %s", s.Name())
	}
	return records, nil
}

// Replace overwrites the collection with records, keeping their order.
func (s *MongoSource) Replace(ctx context.Context, records []*research.Record) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "clear %s", s.Name())
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = toMongo(r, i)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "insert into %s", s.Name())
	}
	return nil
}

// Close disconnects the client when the source created it.
func (s *MongoSource) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}
