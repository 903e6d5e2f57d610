// Package storetest provides store wrappers for exercising failure paths.
package storetest

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/store"
)

// Failing returns Err from reads on Collection (every collection when empty)
// and delegates everything else to Store. An aggregation fails when it runs
// on Collection or joins it through $lookup.
type Failing struct {
	store.Store
	Collection string
	Err        error
}

func (f *Failing) hit(collection string) bool {
	return f.Collection == "" || f.Collection == collection
}

func (f *Failing) Find(ctx context.Context, collection string, filter bson.D, opts *store.FindOptions, results any) error {
	if f.hit(collection) {
		return f.Err
	}
	return f.Store.Find(ctx, collection, filter, opts, results)
}

func (f *Failing) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	if f.hit(collection) {
		return 0, f.Err
	}
	return f.Store.Count(ctx, collection, filter)
}

func (f *Failing) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results any) error {
	if f.hit(collection) {
		return f.Err
	}
	for _, from := range Joined(pipeline) {
		if f.hit(from) {
			return f.Err
		}
	}
	return f.Store.Aggregate(ctx, collection, pipeline, results)
}

func (f *Failing) Explain(ctx context.Context, collection string, target store.ExplainTarget) (*store.ExecutionStats, error) {
	if f.hit(collection) {
		return nil, f.Err
	}
	return f.Store.Explain(ctx, collection, target)
}

// Joined lists the collections a pipeline reads through $lookup.
func Joined(pipeline mongo.Pipeline) []string {
	var out []string
	for _, stage := range pipeline {
		for _, e := range stage {
			if e.Key != "$lookup" {
				continue
			}
			spec, ok := e.Value.(bson.D)
			if !ok {
				continue
			}
			for _, f := range spec {
				if from, ok := f.Value.(string); ok && f.Key == "from" {
					out = append(out, from)
				}
			}
		}
	}
	return out
}
