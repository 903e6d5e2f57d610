package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Aggregate evaluates $match, $lookup, $unwind, $project, $addFields, $group,
// $sort, $skip and $limit stages. Stages never modify stored documents.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]bson.M, len(s.collections[collection]))
	copy(docs, s.collections[collection])
	for _, stage := range pipeline {
		if len(stage) != 1 {
			return fmt.Errorf("memstore: pipeline stage must name exactly one operator, got %d", len(stage))
		}
		var err error
		if docs, err = s.runStage(docs, stage[0]); err != nil {
			return err
		}
	}
	return decodeAll(docs, results)
}

// runStage must be called with s.mu held.
func (s *Store) runStage(docs []bson.M, stage bson.E) ([]bson.M, error) {
	switch stage.Key {
	case "$match":
		filter, ok := asDoc(stage.Value)
		if !ok {
			return nil, fmt.Errorf("memstore: $match needs a document")
		}
		out := docs[:0:0]
		for _, doc := range docs {
			hit, err := match(doc, filter)
			if err != nil {
				return nil, err
			}
			if hit {
				out = append(out, doc)
			}
		}
		return out, nil
	case "$lookup":
		return s.lookupStage(docs, stage.Value)
	case "$unwind":
		return unwindStage(docs, stage.Value)
	case "$project":
		return projectStage(docs, stage.Value, false)
	case "$addFields", "$set":
		return projectStage(docs, stage.Value, true)
	case "$group":
		return groupStage(docs, stage.Value)
	case "$sort":
		spec, ok := asDoc(stage.Value)
		if !ok {
			return nil, fmt.Errorf("memstore: $sort needs a document")
		}
		hits := make([]hit, len(docs))
		for i, doc := range docs {
			hits[i] = hit{doc: doc, pos: i}
		}
		sortHits(hits, spec)
		out := make([]bson.M, len(hits))
		for i, h := range hits {
			out[i] = h.doc
		}
		return out, nil
	case "$skip":
		n := int(normalize(stage.Value).num)
		if n >= len(docs) {
			return nil, nil
		}
		return docs[n:], nil
	case "$limit":
		if n := int(normalize(stage.Value).num); n < len(docs) {
			return docs[:n], nil
		}
		return docs, nil
	}
	return nil, fmt.Errorf("memstore: unsupported pipeline stage %s", stage.Key)
}

func (s *Store) lookupStage(docs []bson.M, value any) ([]bson.M, error) {
	spec, ok := asDoc(value)
	if !ok {
		return nil, fmt.Errorf("memstore: $lookup needs a document")
	}
	var from, localField, foreignField, as string
	for _, e := range spec {
		str, _ := e.Value.(string)
		switch e.Key {
		case "from":
			from = str
		case "localField":
			localField = str
		case "foreignField":
			foreignField = str
		case "as":
			as = str
		default:
			return nil, fmt.Errorf("memstore: unsupported $lookup option %s", e.Key)
		}
	}
	if from == "" || localField == "" || foreignField == "" || as == "" {
		return nil, fmt.Errorf("memstore: $lookup needs from, localField, foreignField and as")
	}

	foreign := s.collections[from]
	out := make([]bson.M, len(docs))
	for i, doc := range docs {
		local, _ := fieldPath(doc, strings.Split(localField, "."))
		joined := primitive.A{}
		for _, f := range foreign {
			fv, _ := lookup(f, foreignField)
			if joins(local, fv) {
				joined = append(joined, f)
			}
		}
		next := shallowCopy(doc)
		next[as] = joined
		out[i] = next
	}
	return out, nil
}

// joins reports whether a local value matches a foreign one. An array on
// either side matches when any element does.
func joins(local, foreign any) bool {
	if arr, ok := asArray(local); ok {
		for _, el := range arr {
			if valueEquals(foreign, el) {
				return true
			}
		}
		return false
	}
	return valueEquals(foreign, local)
}

func unwindStage(docs []bson.M, value any) ([]bson.M, error) {
	var path string
	preserve := false
	switch v := value.(type) {
	case string:
		path = v
	default:
		spec, ok := asDoc(value)
		if !ok {
			return nil, fmt.Errorf("memstore: $unwind needs a path")
		}
		for _, e := range spec {
			switch e.Key {
			case "path":
				path, _ = e.Value.(string)
			case "preserveNullAndEmptyArrays":
				preserve, _ = e.Value.(bool)
			}
		}
	}
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("memstore: $unwind path must start with $, got %q", path)
	}
	path = path[1:]

	var out []bson.M
	for _, doc := range docs {
		v, present := lookup(doc, path)
		arr, isArr := asArray(v)
		switch {
		case isArr && len(arr) > 0:
			for _, el := range arr {
				next := cloneDoc(doc)
				setPath(next, path, el)
				out = append(out, next)
			}
		case isArr || !present || normalize(v).kind == kindNull:
			if preserve {
				next := cloneDoc(doc)
				unsetPath(next, path)
				out = append(out, next)
			}
		default:
			out = append(out, doc)
		}
	}
	return out, nil
}

func projectStage(docs []bson.M, value any, addFields bool) ([]bson.M, error) {
	spec, ok := asDoc(value)
	if !ok {
		return nil, fmt.Errorf("memstore: projection needs a document")
	}

	exclusion := !addFields
	dropID := false
	for _, e := range spec {
		flag, isFlag := projectionFlag(e.Value)
		if e.Key == "_id" && isFlag && !flag {
			dropID = true
			continue
		}
		if !isFlag || flag {
			exclusion = false
		}
	}

	out := make([]bson.M, len(docs))
	for i, doc := range docs {
		var next bson.M
		switch {
		case addFields:
			next = cloneDoc(doc)
		case exclusion:
			next = shallowCopy(doc)
			for _, e := range spec {
				delete(next, e.Key)
			}
			out[i] = next
			continue
		default:
			next = bson.M{}
			if id, ok := doc["_id"]; ok && !dropID {
				next["_id"] = id
			}
		}

		for _, e := range spec {
			if flag, isFlag := projectionFlag(e.Value); isFlag && !addFields {
				if flag {
					if v, ok := lookup(doc, e.Key); ok {
						setPath(next, e.Key, v)
					}
				}
				continue
			}
			v, present, err := eval(doc, e.Value)
			if err != nil {
				return nil, err
			}
			if present {
				setPath(next, e.Key, v)
			}
		}
		out[i] = next
	}
	return out, nil
}

func projectionFlag(v any) (value, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int, int32, int64, float64:
		return normalize(x).num != 0, true
	}
	return false, false
}

type group struct {
	id     any
	values map[string][]any
}

func groupStage(docs []bson.M, value any) ([]bson.M, error) {
	spec, ok := asDoc(value)
	if !ok || len(spec) == 0 || spec[0].Key != "_id" {
		return nil, fmt.Errorf("memstore: $group needs an _id expression first")
	}

	type accumulator struct {
		field string
		op    string
		expr  any
	}
	accs := make([]accumulator, 0, len(spec)-1)
	for _, e := range spec[1:] {
		op, ok := isOperatorDoc(e.Value)
		if !ok || len(op) != 1 {
			return nil, fmt.Errorf("memstore: $group field %s needs one accumulator", e.Key)
		}
		switch op[0].Key {
		case "$sum", "$avg", "$push", "$addToSet", "$first", "$min", "$max":
		default:
			return nil, fmt.Errorf("memstore: unsupported accumulator %s", op[0].Key)
		}
		accs = append(accs, accumulator{field: e.Key, op: op[0].Key, expr: op[0].Value})
	}

	var seen []string
	groups := make(map[string]*group)
	for _, doc := range docs {
		id, present, err := eval(doc, spec[0].Value)
		if err != nil {
			return nil, err
		}
		if !present {
			id = nil
		}
		key := groupKey(id)
		g, ok := groups[key]
		if !ok {
			g = &group{id: id, values: make(map[string][]any)}
			groups[key] = g
			seen = append(seen, key)
		}
		for _, a := range accs {
			v, present, err := eval(doc, a.expr)
			if err != nil {
				return nil, err
			}
			if present {
				g.values[a.field] = append(g.values[a.field], v)
			}
		}
	}

	out := make([]bson.M, 0, len(seen))
	for _, key := range seen {
		g := groups[key]
		doc := bson.M{"_id": g.id}
		for _, a := range accs {
			doc[a.field] = accumulate(a.op, g.values[a.field])
		}
		out = append(out, doc)
	}
	return out, nil
}

func accumulate(op string, values []any) any {
	switch op {
	case "$sum":
		return sum(values)
	case "$avg":
		var total float64
		n := 0
		for _, v := range values {
			if s := normalize(v); s.kind == kindNumber {
				total += s.num
				n++
			}
		}
		if n == 0 {
			return nil
		}
		return total / float64(n)
	case "$push":
		return primitive.A(append([]any{}, values...))
	case "$addToSet":
		seen := make(map[string]struct{}, len(values))
		set := primitive.A{}
		for _, v := range values {
			k := groupKey(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			set = append(set, v)
		}
		return set
	case "$first":
		if len(values) == 0 {
			return nil
		}
		return values[0]
	}

	// $min and $max skip nulls.
	var best any
	for _, v := range values {
		if normalize(v).kind == kindNull {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		c := order(normalize(v), normalize(best))
		if (op == "$min" && c < 0) || (op == "$max" && c > 0) {
			best = v
		}
	}
	return best
}

// sum keeps an integer result while every addend is an integer.
func sum(values []any) any {
	var (
		whole   int64
		total   float64
		integer = true
	)
	for _, v := range values {
		s := normalize(v)
		if s.kind != kindNumber {
			continue
		}
		total += s.num
		switch x := v.(type) {
		case int:
			whole += int64(x)
		case int32:
			whole += int64(x)
		case int64:
			whole += x
		default:
			integer = false
		}
	}
	if integer {
		return whole
	}
	return total
}

// groupKey renders a value so that equal values share a key.
func groupKey(v any) string {
	if d, ok := asDoc(v); ok {
		if _, isM := v.(bson.M); isM {
			sort.Slice(d, func(i, j int) bool { return d[i].Key < d[j].Key })
		}
		parts := make([]string, len(d))
		for i, e := range d {
			parts[i] = e.Key + ":" + groupKey(e.Value)
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	if arr, ok := asArray(v); ok {
		parts := make([]string, len(arr))
		for i, el := range arr {
			parts[i] = groupKey(el)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return normalize(v).key()
}

// eval evaluates an aggregation expression against doc. present is false
// when the expression resolves to a missing field.
func eval(doc bson.M, expr any) (any, bool, error) {
	if str, ok := expr.(string); ok {
		switch {
		case strings.HasPrefix(str, "$$"):
			return nil, false, fmt.Errorf("memstore: unsupported variable %s", str)
		case strings.HasPrefix(str, "$"):
			v, ok := fieldPath(doc, strings.Split(str[1:], "."))
			return v, ok, nil
		}
		return str, true, nil
	}
	if op, ok := isOperatorDoc(expr); ok {
		if len(op) != 1 {
			return nil, false, fmt.Errorf("memstore: expression must name exactly one operator")
		}
		return evalOperator(doc, op[0].Key, op[0].Value)
	}
	if d, ok := asDoc(expr); ok {
		out := make(bson.D, 0, len(d))
		for _, e := range d {
			v, present, err := eval(doc, e.Value)
			if err != nil {
				return nil, false, err
			}
			if present {
				out = append(out, bson.E{Key: e.Key, Value: v})
			}
		}
		return out, true, nil
	}
	if arr, ok := asArray(expr); ok {
		out := make(primitive.A, len(arr))
		for i, el := range arr {
			v, _, err := eval(doc, el)
			if err != nil {
				return nil, false, err
			}
			out[i] = v
		}
		return out, true, nil
	}
	return expr, true, nil
}

// fieldPath resolves a dotted path; crossing an array collects the path's
// value from every element that has it.
func fieldPath(v any, parts []string) (any, bool) {
	if len(parts) == 0 {
		return v, true
	}
	if arr, ok := asArray(v); ok {
		out := primitive.A{}
		for _, el := range arr {
			if r, ok := fieldPath(el, parts); ok {
				out = append(out, r)
			}
		}
		return out, true
	}
	switch m := v.(type) {
	case bson.M:
		next, ok := m[parts[0]]
		if !ok {
			return nil, false
		}
		return fieldPath(next, parts[1:])
	case map[string]any:
		return fieldPath(bson.M(m), parts)
	case bson.D:
		for _, e := range m {
			if e.Key == parts[0] {
				return fieldPath(e.Value, parts[1:])
			}
		}
	}
	return nil, false
}

type operand struct {
	value   any
	present bool
}

func (o operand) null() bool {
	return !o.present || normalize(o.value).kind == kindNull
}

func operands(doc bson.M, arg any, want int) ([]operand, error) {
	list, ok := asArray(arg)
	if !ok {
		list = []any{arg}
	}
	if want > 0 && len(list) != want {
		return nil, fmt.Errorf("memstore: expected %d arguments, got %d", want, len(list))
	}
	out := make([]operand, len(list))
	for i, a := range list {
		v, present, err := eval(doc, a)
		if err != nil {
			return nil, err
		}
		out[i] = operand{value: v, present: present}
	}
	return out, nil
}

func evalOperator(doc bson.M, op string, arg any) (any, bool, error) {
	switch op {
	case "$literal":
		return arg, true, nil
	case "$cond":
		var branches []any
		if d, ok := asDoc(arg); ok {
			m := d.Map()
			branches = []any{m["if"], m["then"], m["else"]}
		} else if list, ok := asArray(arg); ok && len(list) == 3 {
			branches = list
		} else {
			return nil, false, fmt.Errorf("memstore: $cond needs if, then and else")
		}
		cond, present, err := eval(doc, branches[0])
		if err != nil {
			return nil, false, err
		}
		if present && truthy(cond) {
			return eval(doc, branches[1])
		}
		return eval(doc, branches[2])
	}

	args, err := operands(doc, arg, arity[op])
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	switch op {
	case "$size":
		list, ok := asArray(args[0].value)
		if !ok {
			return nil, false, fmt.Errorf("memstore: the argument to $size must be an array")
		}
		return int32(len(list)), true, nil
	case "$multiply", "$add":
		return arithmetic(op, args), true, nil
	case "$year", "$month":
		if args[0].null() {
			return nil, true, nil
		}
		t, ok := asTime(args[0].value)
		if !ok {
			return nil, false, fmt.Errorf("memstore: %s needs a date", op)
		}
		if op == "$year" {
			return int32(t.Year()), true, nil
		}
		return int32(t.Month()), true, nil
	case "$eq", "$ne":
		a, b := args[0], args[1]
		equal := a.present == b.present && order(normalize(a.value), normalize(b.value)) == 0
		return equal == (op == "$eq"), true, nil
	case "$ifNull":
		if args[0].null() {
			return args[1].value, args[1].present, nil
		}
		return args[0].value, true, nil
	case "$isNumber":
		return args[0].present && normalize(args[0].value).kind == kindNumber, true, nil
	}
	return nil, false, fmt.Errorf("memstore: unsupported expression operator %s", op)
}

var arity = map[string]int{
	"$size":     1,
	"$year":     1,
	"$month":    1,
	"$eq":       2,
	"$ne":       2,
	"$ifNull":   2,
	"$isNumber": 1,
}

// arithmetic yields null when any operand is null or missing.
func arithmetic(op string, args []operand) any {
	integer := true
	whole := int64(0)
	total := 0.0
	if op == "$multiply" {
		whole, total = 1, 1
	}
	for _, a := range args {
		if a.null() {
			return nil
		}
		s := normalize(a.value)
		if op == "$multiply" {
			total *= s.num
		} else {
			total += s.num
		}
		switch x := a.value.(type) {
		case int, int32, int64:
			n := int64(normalize(x).num)
			if op == "$multiply" {
				whole *= n
			} else {
				whole += n
			}
		default:
			integer = false
		}
	}
	if integer {
		return whole
	}
	return total
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	}
	return time.Time{}, false
}

func truthy(v any) bool {
	s := normalize(v)
	switch s.kind {
	case kindNull:
		return false
	case kindNumber, kindBool:
		return s.num != 0
	}
	return true
}

func shallowCopy(doc bson.M) bson.M {
	out := make(bson.M, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// cloneDoc copies nested documents so path writes stay local to the copy.
func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc)+1)
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case bson.M:
		return cloneDoc(x)
	case bson.D:
		out := make(bson.D, len(x))
		for i, e := range x {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case primitive.A:
		out := make(primitive.A, len(x))
		for i, el := range x {
			out[i] = cloneValue(el)
		}
		return out
	}
	return v
}
