package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/store"
)

// indexScanStages are plan stages that read through an index.
var indexScanStages = map[string]struct{}{
	"IXSCAN":         {},
	"EXPRESS_IXSCAN": {},
	"TEXT":           {},
	"TEXT_MATCH":     {},
	"TEXT_OR":        {},
	"COUNT_SCAN":     {},
	"DISTINCT_SCAN":  {},
	"IDHACK":         {},
}

func explainCommand(collection string, target store.ExplainTarget) bson.D {
	var inner bson.D
	if target.Pipeline != nil {
		inner = bson.D{
			{Key: "aggregate", Value: collection},
			{Key: "pipeline", Value: target.Pipeline},
			{Key: "cursor", Value: bson.D{}},
		}
	} else {
		inner = bson.D{
			{Key: "find", Value: collection},
			{Key: "filter", Value: orEmpty(target.Filter)},
		}
	}
	return bson.D{
		{Key: "explain", Value: inner},
		{Key: "verbosity", Value: "executionStats"},
	}
}

// parseExplain reads an explain reply. Find and aggregate replies nest the
// statistics at different depths, so the first occurrence of each counter
// wins. Index use is read from the winning and executed plans only.
func parseExplain(reply bson.D) *store.ExecutionStats {
	var (
		stats                 store.ExecutionStats
		haveTime, haveEstTime bool
		haveDocs              bool
		estTime               int64
	)
	walk(reply, func(key string, value any) {
		switch key {
		case "executionTimeMillis":
			if n, ok := toInt64(value); ok && !haveTime {
				stats.ExecutionTimeMillis, haveTime = n, true
			}
		case "executionTimeMillisEstimate":
			if n, ok := toInt64(value); ok && !haveEstTime {
				estTime, haveEstTime = n, true
			}
		case "totalDocsExamined":
			if n, ok := toInt64(value); ok && !haveDocs {
				stats.DocumentsExamined, haveDocs = n, true
			}
		}
	})
	for _, plan := range chosenPlans(reply) {
		walk(plan, func(key string, value any) {
			if name, ok := value.(string); ok && key == "stage" {
				if _, hit := indexScanStages[name]; hit {
					stats.IndexUsed = true
				}
			}
		})
	}
	if !haveTime && haveEstTime {
		stats.ExecutionTimeMillis = estTime
	}
	return &stats
}

// chosenPlans returns queryPlanner.winningPlan and
// executionStats.executionStages, at the top level and under each aggregate
// $cursor stage. rejectedPlans are never returned.
func chosenPlans(reply bson.D) []any {
	var out []any
	collect := func(doc any) {
		for _, path := range [][]string{
			{"queryPlanner", "winningPlan"},
			{"executionStats", "executionStages"},
		} {
			if plan, ok := field(doc, path...); ok {
				out = append(out, plan)
			}
		}
	}
	collect(reply)
	if stages, ok := field(reply, "stages"); ok {
		if list, ok := stages.(bson.A); ok {
			for _, st := range list {
				if cursor, ok := field(st, "$cursor"); ok {
					collect(cursor)
				}
			}
		}
	}
	return out
}

func field(doc any, path ...string) (any, bool) {
	cur := doc
	for _, key := range path {
		var (
			next  any
			found bool
		)
		switch d := cur.(type) {
		case bson.D:
			for _, e := range d {
				if e.Key == key {
					next, found = e.Value, true
					break
				}
			}
		case bson.M:
			next, found = d[key]
		}
		if !found {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func walk(v any, visit func(key string, value any)) {
	switch x := v.(type) {
	case bson.D:
		for _, e := range x {
			visit(e.Key, e.Value)
			walk(e.Value, visit)
		}
	case bson.M:
		for k, val := range x {
			visit(k, val)
			walk(val, visit)
		}
	case bson.A:
		for _, el := range x {
			walk(el, visit)
		}
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

type indexDocument struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  bool   `bson:"unique"`
	Weights bson.D `bson:"weights"`
}

// parseIndexes converts listIndexes output into specs, dropping the implicit
// _id index. Text indexes are stored under the synthetic _fts key, so their
// fields come from the weights document.
func parseIndexes(collection string, raw []indexDocument) []store.IndexSpec {
	out := make([]store.IndexSpec, 0, len(raw))
	for _, doc := range raw {
		if doc.Name == "_id_" {
			continue
		}
		spec := store.IndexSpec{Collection: collection, Name: doc.Name, Unique: doc.Unique}
		for _, k := range doc.Key {
			switch k.Key {
			case "_fts":
				for _, w := range doc.Weights {
					spec.Keys = append(spec.Keys, store.IndexKey{Field: w.Key, Type: store.Text})
				}
			case "_ftsx":
			default:
				spec.Keys = append(spec.Keys, store.IndexKey{Field: k.Key, Type: keyType(k.Value)})
			}
		}
		out = append(out, spec)
	}
	return out
}

func keyType(v any) store.KeyType {
	if s, ok := v.(string); ok && s == "text" {
		return store.Text
	}
	if n, ok := toInt64(v); ok && n < 0 {
		return store.Descending
	}
	return store.Ascending
}
