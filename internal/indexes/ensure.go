package indexes

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/store"
)

// Server codes for index definitions that clash with an existing one.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// EnsureIndexes creates every catalog index the store does not already have.
// An existing index with an identical definition is left alone. An existing
// index on the same fields with different options stops the run with an
// *errors.IndexConfigConflict.
func EnsureIndexes(ctx context.Context, s store.Store, catalog Catalog, logger *slog.Logger) error {
	existing := make(map[string][]store.IndexSpec)

	for _, e := range catalog {
		spec := e.Spec
		if spec.Name == "" {
			spec.Name = spec.DefaultName()
		}

		current, ok := existing[spec.Collection]
		if !ok {
			listed, err := s.ListIndexes(ctx, spec.Collection)
			if err != nil {
				return errors.Wrapf(err, "list indexes on %s", spec.Collection)
			}
			current = listed
			existing[spec.Collection] = current
		}

		if found, ok := sameFields(current, spec); ok {
			if !identical(found, spec) {
				return conflict(spec, found)
			}
			logger.DebugContext(ctx, "index already present",
				slog.String("collection", spec.Collection),
				slog.String("index", found.Name))
			continue
		}

		if err := s.CreateIndex(ctx, spec); err != nil {
			var cmdErr mongo.CommandError
			if errors.As(err, &cmdErr) && (cmdErr.Code == codeIndexOptionsConflict || cmdErr.Code == codeIndexKeySpecsConflict) {
				return &errors.IndexConfigConflict{
					Collection: spec.Collection,
					Fields:     spec.Fields(),
					Declared:   spec.String(),
					Existing:   cmdErr.Message,
				}
			}
			return errors.Wrapf(err, "create index %s on %s", spec.Name, spec.Collection)
		}
		existing[spec.Collection] = append(existing[spec.Collection], spec)

		logger.InfoContext(ctx, "index created",
			slog.String("collection", spec.Collection),
			slog.String("index", spec.Name),
			slog.String("purpose", e.Purpose))
	}
	return nil
}

// sameFields finds an existing index over the same field set. A collection
// holds at most one text index, so any text index matches a declared one.
func sameFields(current []store.IndexSpec, spec store.IndexSpec) (store.IndexSpec, bool) {
	for _, idx := range current {
		if spec.IsText() && idx.IsText() {
			return idx, true
		}
		if idx.IsText() || spec.IsText() || len(idx.Keys) != len(spec.Keys) {
			continue
		}
		match := true
		for i := range idx.Keys {
			if idx.Keys[i].Field != spec.Keys[i].Field {
				match = false
				break
			}
		}
		if match {
			return idx, true
		}
	}
	return store.IndexSpec{}, false
}

func identical(a, b store.IndexSpec) bool {
	if a.Unique != b.Unique || len(a.Keys) != len(b.Keys) {
		return false
	}
	if a.IsText() {
		want := make(map[string]struct{}, len(b.Keys))
		for _, k := range b.Keys {
			want[k.Field] = struct{}{}
		}
		for _, k := range a.Keys {
			if _, ok := want[k.Field]; !ok {
				return false
			}
		}
		return true
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}

func conflict(declared, found store.IndexSpec) error {
	return &errors.IndexConfigConflict{
		Collection: declared.Collection,
		Fields:     declared.Fields(),
		Declared:   declared.String(),
		Existing:   found.String(),
	}
}
