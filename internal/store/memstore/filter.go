package memstore

import (
	"fmt"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
)

// match evaluates a filter against a stored document. $text is resolved by
// the caller before matching and is ignored here.
func match(doc bson.M, filter bson.D) (bool, error) {
	for _, e := range filter {
		ok, err := matchEntry(doc, e)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchEntry(doc bson.M, e bson.E) (bool, error) {
	switch e.Key {
	case "$text":
		return true, nil
	case "$and", "$or":
		clauses, ok := asArray(e.Value)
		if !ok {
			return false, fmt.Errorf("memstore: %s needs an array", e.Key)
		}
		for _, c := range clauses {
			sub, ok := asDoc(c)
			if !ok {
				return false, fmt.Errorf("memstore: %s clause is not a document", e.Key)
			}
			hit, err := match(doc, sub)
			if err != nil {
				return false, err
			}
			if e.Key == "$or" && hit {
				return true, nil
			}
			if e.Key == "$and" && !hit {
				return false, nil
			}
		}
		return e.Key == "$and", nil
	}
	if strings.HasPrefix(e.Key, "$") {
		return false, fmt.Errorf("memstore: unsupported top-level operator %s", e.Key)
	}

	field, present := lookup(doc, e.Key)
	ops, isOps := isOperatorDoc(e.Value)
	if !isOps {
		if e.Value == nil {
			return !present || normalize(field).kind == kindNull, nil
		}
		return present && valueEquals(field, e.Value), nil
	}
	for _, op := range ops {
		ok, err := matchOperator(field, present, op)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOperator(field any, present bool, op bson.E) (bool, error) {
	switch op.Key {
	case "$eq":
		return present && valueEquals(field, op.Value), nil
	case "$ne":
		return !present || !valueEquals(field, op.Value), nil
	case "$gt", "$gte", "$lt", "$lte":
		if !present {
			return false, nil
		}
		return anyElement(field, func(v any) bool { return inRange(v, op) }), nil
	case "$in", "$nin":
		list, ok := asArray(op.Value)
		if !ok {
			return false, fmt.Errorf("memstore: %s needs an array", op.Key)
		}
		hit := false
		for _, candidate := range list {
			if present && valueEquals(field, candidate) {
				hit = true
				break
			}
		}
		if op.Key == "$in" {
			return hit, nil
		}
		return !hit, nil
	case "$exists":
		want, _ := op.Value.(bool)
		return present == want, nil
	}
	return false, fmt.Errorf("memstore: unsupported operator %s", op.Key)
}

func anyElement(field any, pred func(any) bool) bool {
	if arr, ok := asArray(field); ok {
		for _, el := range arr {
			if pred(el) {
				return true
			}
		}
		return false
	}
	return pred(field)
}

func inRange(v any, op bson.E) bool {
	c, ok := compare(normalize(v), normalize(op.Value))
	if !ok {
		return false
	}
	switch op.Key {
	case "$gt":
		return c > 0
	case "$gte":
		return c >= 0
	case "$lt":
		return c < 0
	}
	return c <= 0
}

// textSearch extracts the $search string of a top-level $text clause.
func textSearch(filter bson.D) (string, bool) {
	for _, e := range filter {
		if e.Key != "$text" {
			continue
		}
		d, ok := asDoc(e.Value)
		if !ok {
			return "", true
		}
		for _, o := range d {
			if o.Key == "$search" {
				s, _ := o.Value.(string)
				return s, true
			}
		}
		return "", true
	}
	return "", false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// textScore counts occurrences of the search terms in the indexed fields.
// Zero means no match.
func textScore(doc bson.M, fields []string, search string) float64 {
	terms := tokenize(search)
	if len(terms) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	score := 0.0
	for _, f := range fields {
		v, ok := lookup(doc, f)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, tok := range tokenize(s) {
			if _, hit := want[tok]; hit {
				score++
			}
		}
	}
	return score
}
