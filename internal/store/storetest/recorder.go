package storetest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/store"
)

// Aggregation is one pipeline run seen by a Recorder.
type Aggregation struct {
	Collection string
	Pipeline   mongo.Pipeline
}

// Recorder delegates to Store and keeps every pipeline it runs.
type Recorder struct {
	store.Store

	mu   sync.Mutex
	runs []Aggregation
}

func (r *Recorder) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results any) error {
	r.mu.Lock()
	r.runs = append(r.runs, Aggregation{Collection: collection, Pipeline: pipeline})
	r.mu.Unlock()
	return r.Store.Aggregate(ctx, collection, pipeline, results)
}

// Aggregations returns the pipelines run so far, oldest first.
func (r *Recorder) Aggregations() []Aggregation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Aggregation, len(r.runs))
	copy(out, r.runs)
	return out
}
