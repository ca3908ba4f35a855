// Package mongo implements store.Store on a MongoDB database. Document ids
// are stored verbatim in the _id field, so the server's unique index on _id
// provides the duplicate-id detection the other backends emulate.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cinelogapp/cinelog-server/internal/store"
)

// Store wraps a MongoDB client scoped to one database.
type Store struct {
	client *mongodrv.Client
	db     *mongodrv.Database
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to the MongoDB instance at uri and pings it.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongodrv.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if logger != nil {
		logger.Info("Connected to MongoDB", "database", database)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing MongoDB connection")
	}
	return s.client.Disconnect(context.Background())
}

func (s *Store) coll(name string) *mongodrv.Collection {
	return s.db.Collection(name)
}

// query translates a Filter to a MongoDB filter document. The substring is
// quoted so the filter stays a plain substring match rather than a
// caller-supplied regular expression.
func query(f store.Filter) bson.M {
	if f.IsZero() {
		return bson.M{}
	}
	return bson.M{"title": bson.M{
		"$regex":   regexp.QuoteMeta(f.TitleContains),
		"$options": "i",
	}}
}

// Insert stores a new document under the given id.
func (s *Store) Insert(ctx context.Context, collection, id string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var asMap bson.M
	if err := bson.Unmarshal(raw, &asMap); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	asMap["_id"] = id

	_, err = s.coll(collection).InsertOne(ctx, asMap)
	if mongodrv.IsDuplicateKeyError(err) {
		return store.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// Get decodes the document with the given id into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	err := s.coll(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return store.ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", collection, err)
	}
	return nil
}

// Find decodes the documents matching the filter into out.
func (s *Store) Find(ctx context.Context, collection string, f store.Filter, skip, limit int64, out any) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := s.coll(collection).Find(ctx, query(f), opts)
	if err != nil {
		return fmt.Errorf("find in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s cursor: %w", collection, err)
	}
	return nil
}

// Count returns the number of documents matching the filter.
func (s *Store) Count(ctx context.Context, collection string, f store.Filter) (int64, error) {
	n, err := s.coll(collection).CountDocuments(ctx, query(f))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// SetFields overwrites top-level fields via $set. The server's ModifiedCount
// distinguishes a real change from a write of identical values.
func (s *Store) SetFields(ctx context.Context, collection, id string, fields map[string]any) (bool, error) {
	set := bson.M{}
	for name, value := range fields {
		set[name] = value
	}

	res, err := s.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return false, store.ErrNoDocument
	}
	return res.ModifiedCount > 0, nil
}

// Push appends a value to an array field via $push.
func (s *Store) Push(ctx context.Context, collection, id, field string, value any) (bool, error) {
	res, err := s.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return false, fmt.Errorf("push to %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return false, store.ErrNoDocument
	}
	return res.ModifiedCount > 0, nil
}

// Pull removes every occurrence of a value from an array field via $pull.
func (s *Store) Pull(ctx context.Context, collection, id, field string, value any) (bool, error) {
	res, err := s.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{field: value}})
	if err != nil {
		return false, fmt.Errorf("pull from %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return false, store.ErrNoDocument
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes a document and reports whether it existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.coll(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.DeletedCount > 0, nil
}
