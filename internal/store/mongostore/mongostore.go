// Package mongostore implements store.Store on the official MongoDB driver.
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/store"
)

type Store struct {
	db *mongo.Database
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// The driver rejects a nil filter document.
func orEmpty(filter bson.D) bson.D {
	if filter == nil {
		return bson.D{}
	}
	return filter
}

func (s *Store) InsertOne(ctx context.Context, collection string, document any) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, document)
	return err
}

func (s *Store) UpdateOne(ctx context.Context, collection string, filter, update bson.D) (int64, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx, orEmpty(filter), update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.D) (int64, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter bson.D, opts *store.FindOptions, results any) error {
	findOpts := options.Find()
	if opts != nil {
		if len(opts.Sort) > 0 {
			findOpts.SetSort(opts.Sort)
		}
		if len(opts.Projection) > 0 {
			findOpts.SetProjection(opts.Projection)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	}

	cursor, err := s.db.Collection(collection).Find(ctx, orEmpty(filter), findOpts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

func (s *Store) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	return s.db.Collection(collection).CountDocuments(ctx, orEmpty(filter))
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results any) error {
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

func (s *Store) CreateIndex(ctx context.Context, spec store.IndexSpec) error {
	opts := options.Index().SetName(spec.DefaultName())
	if spec.Unique {
		opts.SetUnique(true)
	}
	_, err := s.db.Collection(spec.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    spec.KeyDocument(),
		Options: opts,
	})
	return err
}

func (s *Store) ListIndexes(ctx context.Context, collection string) ([]store.IndexSpec, error) {
	cursor, err := s.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raw []indexDocument
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, errors.Wrapf(err, "decode indexes of %s", collection)
	}
	return parseIndexes(collection, raw), nil
}

func (s *Store) Explain(ctx context.Context, collection string, target store.ExplainTarget) (*store.ExecutionStats, error) {
	var out bson.D
	if err := s.db.RunCommand(ctx, explainCommand(collection, target)).Decode(&out); err != nil {
		return nil, err
	}
	return parseExplain(out), nil
}
