// Package memstore is an in-process implementation of store.Store. It honors
// unique indexes and $text search over a declared text index, and evaluates
// the filter operators and aggregation stages that the query, analytics and
// index code exercise.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	indexes     map[string][]store.IndexSpec
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string][]bson.M),
		indexes:     make(map[string][]store.IndexSpec),
	}
}

type hit struct {
	doc   bson.M
	pos   int
	score float64
}

func (s *Store) InsertOne(ctx context.Context, collection string, document any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := toDocument(document)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(collection, doc, -1); err != nil {
		return err
	}
	s.collections[collection] = append(s.collections[collection], doc)
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, collection string, filter, update bson.D) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.filter(collection, filter)
	if err != nil || len(hits) == 0 {
		return 0, err
	}
	target := hits[0]
	updated, err := toDocument(target.doc)
	if err != nil {
		return 0, err
	}
	if err := applyUpdate(updated, update); err != nil {
		return 0, err
	}
	if err := s.checkUnique(collection, updated, target.pos); err != nil {
		return 0, err
	}
	s.collections[collection][target.pos] = updated
	return 1, nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.D) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.filter(collection, filter)
	if err != nil || len(hits) == 0 {
		return 0, err
	}
	docs := s.collections[collection]
	pos := hits[0].pos
	s.collections[collection] = append(docs[:pos:pos], docs[pos+1:]...)
	return 1, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter bson.D, opts *store.FindOptions, results any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	hits, err := s.filter(collection, filter)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if opts != nil {
		if len(opts.Sort) > 0 {
			sortHits(hits, opts.Sort)
		}
		if opts.Limit > 0 && int64(len(hits)) > opts.Limit {
			hits = hits[:opts.Limit]
		}
	}

	docs := make([]bson.M, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
		if opts != nil && len(opts.Projection) > 0 {
			docs[i] = project(h.doc, opts.Projection)
		}
	}
	return decodeAll(docs, results)
}

func (s *Store) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.filter(collection, filter)
	return int64(len(hits)), err
}

func (s *Store) CreateIndex(ctx context.Context, spec store.IndexSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if spec.Name == "" {
		spec.Name = spec.DefaultName()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.indexes[spec.Collection] {
		switch {
		case sameKeys(existing, spec):
			if existing.Unique == spec.Unique && existing.Name == spec.Name {
				return nil
			}
			return mongo.CommandError{
				Code:    85,
				Name:    "IndexOptionsConflict",
				Message: fmt.Sprintf("Index already exists with a different name or options: %s", existing.Name),
			}
		case existing.Name == spec.Name:
			return mongo.CommandError{
				Code:    86,
				Name:    "IndexKeySpecsConflict",
				Message: fmt.Sprintf("An existing index has the same name as the requested index: %s", spec.Name),
			}
		case existing.IsText() && spec.IsText():
			return mongo.CommandError{
				Code:    85,
				Name:    "IndexOptionsConflict",
				Message: "An equivalent text index already exists with a different name and options",
			}
		}
	}

	if spec.Unique {
		seen := make(map[string]struct{})
		for _, doc := range s.collections[spec.Collection] {
			k := uniqueKey(doc, spec)
			if _, dup := seen[k]; dup {
				return store.NewDuplicateKeyError(spec.Collection, spec.Name, k)
			}
			seen[k] = struct{}{}
		}
	}
	s.indexes[spec.Collection] = append(s.indexes[spec.Collection], spec)
	return nil
}

func (s *Store) ListIndexes(ctx context.Context, collection string) ([]store.IndexSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.IndexSpec, len(s.indexes[collection]))
	copy(out, s.indexes[collection])
	return out, nil
}

// Explain reports an index as used when one's leading key is constrained by
// the target's leading filter, and counts documents examined accordingly.
func (s *Store) Explain(ctx context.Context, collection string, target store.ExplainTarget) (*store.ExecutionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.collections[collection]))
	filter := target.LeadingFilter()
	if filter == nil {
		return &store.ExecutionStats{
			ExecutionTimeMillis: time.Since(start).Milliseconds(),
			DocumentsExamined:   total,
		}, nil
	}

	hits, err := s.filter(collection, filter)
	if err != nil {
		return nil, err
	}
	stats := &store.ExecutionStats{DocumentsExamined: total}
	if s.chooseIndex(collection, filter) != nil {
		stats.IndexUsed = true
		stats.DocumentsExamined = int64(len(hits))
	}
	stats.ExecutionTimeMillis = time.Since(start).Milliseconds()
	return stats, nil
}

func (s *Store) chooseIndex(collection string, filter bson.D) *store.IndexSpec {
	_, isText := textSearch(filter)
	for i, idx := range s.indexes[collection] {
		if isText {
			if idx.IsText() {
				return &s.indexes[collection][i]
			}
			continue
		}
		if idx.IsText() || len(idx.Keys) == 0 {
			continue
		}
		for _, e := range filter {
			if e.Key == idx.Keys[0].Field {
				return &s.indexes[collection][i]
			}
		}
	}
	return nil
}

// filter must be called with s.mu held.
func (s *Store) filter(collection string, filter bson.D) ([]hit, error) {
	search, isText := textSearch(filter)
	var textFields []string
	if isText {
		for _, idx := range s.indexes[collection] {
			if idx.IsText() {
				for _, k := range idx.Keys {
					if k.Type == store.Text {
						textFields = append(textFields, k.Field)
					}
				}
			}
		}
		if len(textFields) == 0 {
			return nil, mongo.CommandError{Code: 27, Name: "IndexNotFound", Message: "text index required for $text query"}
		}
	}

	var hits []hit
	for pos, doc := range s.collections[collection] {
		var score float64
		if isText {
			if score = textScore(doc, textFields, search); score == 0 {
				continue
			}
		}
		ok, err := match(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, hit{doc: doc, pos: pos, score: score})
		}
	}
	return hits, nil
}

// checkUnique must be called with s.mu held. skip excludes the document being
// replaced by an update.
func (s *Store) checkUnique(collection string, doc bson.M, skip int) error {
	for _, idx := range s.indexes[collection] {
		if !idx.Unique {
			continue
		}
		k := uniqueKey(doc, idx)
		for pos, other := range s.collections[collection] {
			if pos != skip && uniqueKey(other, idx) == k {
				return store.NewDuplicateKeyError(collection, idx.Name, k)
			}
		}
	}
	return nil
}

func uniqueKey(doc bson.M, idx store.IndexSpec) string {
	parts := make([]string, len(idx.Keys))
	for i, k := range idx.Keys {
		v, _ := lookup(doc, k.Field)
		parts[i] = k.Field + ": " + normalize(v).key()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func sameKeys(a, b store.IndexSpec) bool {
	if a.IsText() && b.IsText() {
		af, bf := textFieldSet(a), textFieldSet(b)
		return af == bf
	}
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}

func textFieldSet(s store.IndexSpec) string {
	fields := s.Fields()
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

func sortHits(hits []hit, spec bson.D) {
	sort.SliceStable(hits, func(i, j int) bool {
		for _, e := range spec {
			if meta, ok := asDoc(e.Value); ok && len(meta) > 0 && meta[0].Key == "$meta" {
				if hits[i].score != hits[j].score {
					return hits[i].score > hits[j].score
				}
				continue
			}
			a, _ := lookup(hits[i].doc, e.Key)
			b, _ := lookup(hits[j].doc, e.Key)
			c := order(normalize(a), normalize(b))
			if c == 0 {
				continue
			}
			if normalize(e.Value).num < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// project supports top-level inclusion or exclusion projections.
func project(doc bson.M, projection bson.D) bson.M {
	include := false
	for _, e := range projection {
		if normalize(e.Value).num != 0 {
			include = true
			break
		}
	}
	out := bson.M{}
	if include {
		for _, e := range projection {
			top := strings.SplitN(e.Key, ".", 2)[0]
			if v, ok := doc[top]; ok && normalize(e.Value).num != 0 {
				out[top] = v
			}
		}
		return out
	}
	for k, v := range doc {
		out[k] = v
	}
	for _, e := range projection {
		delete(out, e.Key)
	}
	return out
}

func applyUpdate(doc bson.M, update bson.D) error {
	for _, op := range update {
		fields, ok := asDoc(op.Value)
		if !ok {
			return fmt.Errorf("memstore: %s needs a document", op.Key)
		}
		for _, f := range fields {
			switch op.Key {
			case "$set":
				v, err := toValue(f.Value)
				if err != nil {
					return err
				}
				setPath(doc, f.Key, v)
			case "$unset":
				unsetPath(doc, f.Key)
			case "$addToSet":
				if err := addToSet(doc, f); err != nil {
					return err
				}
			default:
				return fmt.Errorf("memstore: unsupported update operator %s", op.Key)
			}
		}
	}
	return nil
}

func addToSet(doc bson.M, f bson.E) error {
	values := []any{f.Value}
	if each, ok := isOperatorDoc(f.Value); ok && each[0].Key == "$each" {
		list, ok := asArray(each[0].Value)
		if !ok {
			return fmt.Errorf("memstore: $each needs an array")
		}
		values = list
	}
	current, _ := lookup(doc, f.Key)
	arr, _ := asArray(current)
	for _, v := range values {
		nv, err := toValue(v)
		if err != nil {
			return err
		}
		present := false
		for _, el := range arr {
			if valueEquals(el, nv) {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, nv)
		}
	}
	setPath(doc, f.Key, arr)
	return nil
}

func decodeAll(docs []bson.M, results any) error {
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("memstore: results must be a pointer to a slice, got %T", results)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	slice.Set(out)
	return nil
}
