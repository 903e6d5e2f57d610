// Package store defines the document-store capability the rest of the module
// is written against. Implementations live in mongostore (MongoDB) and
// memstore (in-process, for tests and local runs).
package store

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the set of primitives consumed from the document store.
type Store interface {
	InsertOne(ctx context.Context, collection string, document any) error
	UpdateOne(ctx context.Context, collection string, filter, update bson.D) (matched int64, err error)
	DeleteOne(ctx context.Context, collection string, filter bson.D) (deleted int64, err error)

	// Find decodes every matching document into results, which must be a
	// pointer to a slice.
	Find(ctx context.Context, collection string, filter bson.D, opts *FindOptions, results any) error
	Count(ctx context.Context, collection string, filter bson.D) (int64, error)

	// Aggregate runs a multi-stage pipeline and decodes every output document
	// into results, which must be a pointer to a slice.
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results any) error

	CreateIndex(ctx context.Context, spec IndexSpec) error
	ListIndexes(ctx context.Context, collection string) ([]IndexSpec, error)

	// Explain runs the target with execution statistics capture.
	Explain(ctx context.Context, collection string, target ExplainTarget) (*ExecutionStats, error)
}

type FindOptions struct {
	Sort       bson.D
	Projection bson.D
	Limit      int64
}

// KeyType is the per-field kind of an index key.
type KeyType string

const (
	Ascending  KeyType = "1"
	Descending KeyType = "-1"
	Text       KeyType = "text"
)

type IndexKey struct {
	Field string
	Type  KeyType
}

// IndexSpec is a store-neutral index definition.
type IndexSpec struct {
	Collection string
	Name       string
	Keys       []IndexKey
	Unique     bool
}

// Fields returns the key field names in declaration order.
func (s IndexSpec) Fields() []string {
	out := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		out[i] = k.Field
	}
	return out
}

// IsText reports whether any key is a full-text key.
func (s IndexSpec) IsText() bool {
	for _, k := range s.Keys {
		if k.Type == Text {
			return true
		}
	}
	return false
}

// DefaultName mirrors the name MongoDB derives when none is given.
func (s IndexSpec) DefaultName() string {
	if s.Name != "" {
		return s.Name
	}
	parts := make([]string, 0, len(s.Keys)*2)
	for _, k := range s.Keys {
		parts = append(parts, k.Field, string(k.Type))
	}
	return strings.Join(parts, "_")
}

// KeyDocument renders the keys as a driver key document.
func (s IndexSpec) KeyDocument() bson.D {
	keys := make(bson.D, 0, len(s.Keys))
	for _, k := range s.Keys {
		switch k.Type {
		case Text:
			keys = append(keys, bson.E{Key: k.Field, Value: "text"})
		case Descending:
			keys = append(keys, bson.E{Key: k.Field, Value: -1})
		default:
			keys = append(keys, bson.E{Key: k.Field, Value: 1})
		}
	}
	return keys
}

func (s IndexSpec) String() string {
	keys := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = fmt.Sprintf("%s:%s", k.Field, k.Type)
	}
	return fmt.Sprintf("{%s unique=%t}", strings.Join(keys, ","), s.Unique)
}

// ExplainTarget is either a find filter or an aggregation pipeline.
type ExplainTarget struct {
	Filter   bson.D
	Pipeline mongo.Pipeline
}

// LeadingFilter returns the filter the store can use to pick an index: the
// find filter itself, or the first $match stage of a pipeline.
func (t ExplainTarget) LeadingFilter() bson.D {
	if t.Pipeline == nil {
		return t.Filter
	}
	if len(t.Pipeline) == 0 || len(t.Pipeline[0]) == 0 || t.Pipeline[0][0].Key != "$match" {
		return nil
	}
	switch m := t.Pipeline[0][0].Value.(type) {
	case bson.D:
		return m
	case bson.M:
		out := make(bson.D, 0, len(m))
		for k, v := range m {
			out = append(out, bson.E{Key: k, Value: v})
		}
		return out
	}
	return nil
}

type ExecutionStats struct {
	ExecutionTimeMillis int64
	DocumentsExamined   int64
	IndexUsed           bool
}
