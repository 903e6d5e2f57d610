// Package schema checks candidate documents against per-entity field rules
// before they are written. It performs no I/O.
package schema

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jas-4484/eduhub/internal/errors"
)

var validate = validator.New()

// Validate checks document against the rules declared for entity and returns
// the first violation as a *errors.ValidationError.
func Validate(entity string, document bson.M) error {
	rules, ok := Rules[entity]
	if !ok {
		return errors.Wrapf(errors.ErrInvalidArgument, "no schema for entity %q", entity)
	}
	for _, f := range rules {
		if err := checkField(entity, f, document); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRecord encodes a typed record the way it would be stored and
// validates the result.
func ValidateRecord(entity string, record any) error {
	raw, err := bson.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "encode %s record", entity)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "decode %s record", entity)
	}
	return Validate(entity, doc)
}

func checkField(entity string, f Field, doc bson.M) error {
	value, present := lookup(doc, f.Path)
	if !present {
		if f.Required {
			return errors.NewValidationError(entity, f.Path, errors.ReasonMissingField, "required field is missing")
		}
		return nil
	}

	if isNull(value) {
		if f.Nullable {
			return nil
		}
		if f.Required {
			return errors.NewValidationError(entity, f.Path, errors.ReasonMissingField, "required field is null")
		}
		return errors.NewValidationError(entity, f.Path, errors.ReasonTypeMismatch, "null is not a %s", f.Kind)
	}

	if !hasKind(value, f.Kind) {
		return errors.NewValidationError(entity, f.Path, errors.ReasonTypeMismatch, "expected %s, got %T", f.Kind, value)
	}

	s, isString := value.(string)
	if isString && f.Required && strings.TrimSpace(s) == "" {
		return errors.NewValidationError(entity, f.Path, errors.ReasonMissingField, "required field is empty")
	}
	if len(f.Enum) > 0 {
		if err := validate.Var(s, "oneof="+strings.Join(f.Enum, " ")); err != nil {
			return errors.NewValidationError(entity, f.Path, errors.ReasonEnumViolation, "%q is not one of %v", s, f.Enum)
		}
	}
	if f.Pattern != nil && !f.Pattern.MatchString(s) {
		return errors.NewValidationError(entity, f.Path, errors.ReasonPatternViolation, "%q does not match %s", s, f.Pattern)
	}
	return nil
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		var (
			v  any
			ok bool
		)
		switch m := cur.(type) {
		case bson.M:
			v, ok = m[part]
		case map[string]any:
			v, ok = m[part]
		case bson.D:
			v, ok = m.Map()[part]
		}
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func isNull(v any) bool {
	switch v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return true
	}
	return false
}

func hasKind(v any, k Kind) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64, primitive.Decimal128:
			return true
		}
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindDate:
		switch v.(type) {
		case primitive.DateTime, time.Time:
			return true
		}
	case KindArray:
		switch v.(type) {
		case primitive.A, []any, []string:
			return true
		}
	case KindObject:
		switch v.(type) {
		case bson.M, bson.D, map[string]any:
			return true
		}
	}
	return false
}
