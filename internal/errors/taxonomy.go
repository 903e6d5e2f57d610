package errors

import (
	"fmt"
	"strings"
	"time"
)

// Base kinds usable with errors.Is().
var (
	ErrValidation        = New("validation error")
	ErrDuplicateKey      = New("duplicate key")
	ErrReferenceNotFound = New("reference not found")
	ErrNotFound          = New("document not found")
	ErrIndexConflict     = New("index configuration conflict")
	ErrQueryExecution    = New("query execution failed")
	ErrInvalidArgument   = New("invalid argument")
)

// Reason classifies why a document was rejected before write.
type Reason string

const (
	ReasonMissingField       Reason = "MissingField"
	ReasonTypeMismatch       Reason = "TypeMismatch"
	ReasonEnumViolation      Reason = "EnumViolation"
	ReasonPatternViolation   Reason = "PatternViolation"
	ReasonInvariantViolation Reason = "InvariantViolation"
)

// ValidationError is a field-level rejection of a candidate document.
type ValidationError struct {
	Entity  string
	Field   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s: %s", e.Entity, e.Field, e.Reason, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError.
func NewValidationError(entity, field string, reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{
		Entity:  entity,
		Field:   field,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// DuplicateKeyError is a store-reported uniqueness violation.
type DuplicateKeyError struct {
	Collection string
	Key        string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: duplicate key", e.Collection)
	}
	return fmt.Sprintf("%s: duplicate key %s", e.Collection, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// ReferenceNotFoundError reports a foreign key that does not resolve at write time.
type ReferenceNotFoundError struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *ReferenceNotFoundError) Is(target error) bool { return target == ErrReferenceNotFound }

// IndexConfigConflict is fatal: an existing index on the same keys disagrees
// with the declared definition.
type IndexConfigConflict struct {
	Collection string
	Fields     []string
	Declared   string
	Existing   string
}

func (e *IndexConfigConflict) Error() string {
	return fmt.Sprintf("index conflict on %s(%s): declared %s, existing %s",
		e.Collection, strings.Join(e.Fields, ","), e.Declared, e.Existing)
}

func (e *IndexConfigConflict) Is(target error) bool { return target == ErrIndexConflict }

// QueryExecutionError wraps a store failure during a read or aggregate.
type QueryExecutionError struct {
	Op         string
	Collection string
	Err        error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *QueryExecutionError) Is(target error) bool { return target == ErrQueryExecution }

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// NewQueryExecutionError wraps err with stack context unless it is nil.
func NewQueryExecutionError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryExecutionError{Op: op, Collection: collection, Err: WithStack(err)}
}

// PerformanceAnomaly is a non-fatal report: a path declared in the index
// catalog executed without an index.
type PerformanceAnomaly struct {
	Collection        string        `json:"collection"`
	Fields            []string      `json:"fields"`
	DocumentsExamined int64         `json:"documentsExamined"`
	ExecutionTime     time.Duration `json:"executionTimeNanos"`
	DetectedAt        time.Time     `json:"detectedAt"`
}

func (e *PerformanceAnomaly) Error() string {
	return fmt.Sprintf("performance anomaly on %s(%s): no index used, %d documents examined in %s",
		e.Collection, strings.Join(e.Fields, ","), e.DocumentsExamined, e.ExecutionTime)
}

// IsValidation reports whether err is a schema or invariant rejection.
func IsValidation(err error) bool { return Is(err, ErrValidation) }

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool { return Is(err, ErrDuplicateKey) }

// IsReferenceNotFound reports whether err is an unresolved reference.
func IsReferenceNotFound(err error) bool { return Is(err, ErrReferenceNotFound) }
