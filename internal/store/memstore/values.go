package memstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type kind int

// Ranks follow the server's cross-type comparison order.
const (
	kindNull kind = iota
	kindNumber
	kindString
	kindOther
	kindBool
	kindDate
)

type scalar struct {
	kind kind
	num  float64
	str  string
}

func normalize(v any) scalar {
	switch x := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return scalar{kind: kindNull}
	case int:
		return scalar{kind: kindNumber, num: float64(x)}
	case int32:
		return scalar{kind: kindNumber, num: float64(x)}
	case int64:
		return scalar{kind: kindNumber, num: float64(x)}
	case float32:
		return scalar{kind: kindNumber, num: float64(x)}
	case float64:
		return scalar{kind: kindNumber, num: x}
	case string:
		return scalar{kind: kindString, str: x}
	case bool:
		if x {
			return scalar{kind: kindBool, num: 1}
		}
		return scalar{kind: kindBool}
	case primitive.DateTime:
		return scalar{kind: kindDate, num: float64(int64(x))}
	case time.Time:
		return scalar{kind: kindDate, num: float64(x.UnixMilli())}
	case *time.Time:
		if x == nil {
			return scalar{kind: kindNull}
		}
		return scalar{kind: kindDate, num: float64(x.UnixMilli())}
	case *float64:
		if x == nil {
			return scalar{kind: kindNull}
		}
		return scalar{kind: kindNumber, num: *x}
	}
	// Named types such as enum strings encode as their underlying kind.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return scalar{kind: kindString, str: rv.String()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalar{kind: kindNumber, num: float64(rv.Int())}
	case reflect.Float32, reflect.Float64:
		return scalar{kind: kindNumber, num: rv.Float()}
	}
	return scalar{kind: kindOther, str: fmt.Sprint(v)}
}

func (s scalar) key() string {
	switch s.kind {
	case kindString, kindOther:
		return fmt.Sprintf("%d:%s", s.kind, s.str)
	}
	return fmt.Sprintf("%d:%v", s.kind, s.num)
}

// compare orders two scalars; ok is false when their kinds differ.
func compare(a, b scalar) (int, bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case kindNull:
		return 0, true
	case kindString, kindOther:
		return strings.Compare(a.str, b.str), true
	}
	switch {
	case a.num < b.num:
		return -1, true
	case a.num > b.num:
		return 1, true
	}
	return 0, true
}

// order is a total order across kinds, used for sorting.
func order(a, b scalar) int {
	if c, ok := compare(a, b); ok {
		return c
	}
	if a.kind < b.kind {
		return -1
	}
	return 1
}

func asArray(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if a, ok := v.(primitive.A); ok {
		return a, true
	}
	if a, ok := v.([]any); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	if _, isD := v.(bson.D); isD {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asDoc(v any) (bson.D, bool) {
	switch d := v.(type) {
	case bson.D:
		return d, true
	case bson.M:
		out := make(bson.D, 0, len(d))
		for k, val := range d {
			out = append(out, bson.E{Key: k, Value: val})
		}
		return out, true
	case map[string]any:
		return asDoc(bson.M(d))
	}
	return nil, false
}

func isOperatorDoc(v any) (bson.D, bool) {
	d, ok := asDoc(v)
	if !ok || len(d) == 0 || !strings.HasPrefix(d[0].Key, "$") {
		return nil, false
	}
	return d, true
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc bson.M, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		var next bson.M
		switch existing := cur[part].(type) {
		case bson.M:
			next = existing
		case bson.D:
			next = existing.Map()
		default:
			next = bson.M{}
		}
		cur[part] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func unsetPath(doc bson.M, path string) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(bson.M)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

// valueEquals applies the server's equality rule: an array field matches when
// any element equals the operand.
func valueEquals(field, operand any) bool {
	if arr, ok := asArray(field); ok {
		if _, opArr := asArray(operand); !opArr {
			for _, el := range arr {
				if valueEquals(el, operand) {
					return true
				}
			}
			return false
		}
	}
	c, ok := compare(normalize(field), normalize(operand))
	return ok && c == 0
}

// toDocument stores a copy of v as the decoder would see it on the wire.
func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// toValue round-trips a single value through the encoder.
func toValue(v any) (any, error) {
	doc, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}
