// Package analytics derives statistics across the entity collections. Every
// report runs its plan as a store aggregation, then rounds and orders the
// rows. A reference that does not resolve contributes an empty branch, never
// an error.
package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
)

type Engine struct {
	store store.Store
}

func New(s store.Store) *Engine {
	return &Engine{store: s}
}

// round2 rounds half away from zero to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// run executes the named plan and decodes its output into rows.
func (e *Engine) run(ctx context.Context, op, name string, rows any) error {
	plan, ok := plans[name]
	if !ok {
		return errors.Errorf("analytics: no plan named %q", name)
	}
	return errors.NewQueryExecutionError(op, plan.Collection,
		e.store.Aggregate(ctx, plan.Collection, plan.Pipeline, rows))
}

// userRow is a joined user; the join yields zero or one.
type userRow struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
}

func fullName(users []userRow) string {
	if len(users) == 0 {
		return ""
	}
	return models.User{FirstName: users[0].FirstName, LastName: users[0].LastName}.FullName()
}

// distinct returns the sorted non-empty values.
func distinct(values ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range values {
		for _, v := range list {
			if v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
