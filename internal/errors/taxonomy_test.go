package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "validation", err: NewValidationError("users", "email", ReasonPatternViolation, "bad"), kind: ErrValidation},
		{name: "duplicate", err: &DuplicateKeyError{Collection: "users", Key: "email"}, kind: ErrDuplicateKey},
		{name: "reference", err: &ReferenceNotFoundError{Entity: "course", ID: "C1"}, kind: ErrReferenceNotFound},
		{name: "index conflict", err: &IndexConfigConflict{Collection: "users", Fields: []string{"email"}}, kind: ErrIndexConflict},
		{name: "query", err: NewQueryExecutionError("find", "users", New("boom")), kind: ErrQueryExecution},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
		})
	}
}

func TestNewQueryExecutionError_Nil(t *testing.T) {
	assert.NoError(t, NewQueryExecutionError("find", "users", nil))
}

func TestValidationError_As(t *testing.T) {
	err := Wrap(NewValidationError("courses", "level", ReasonEnumViolation, "got %q", "expert"), "insert course")

	var verr *ValidationError
	if assert.True(t, As(err, &verr)) {
		assert.Equal(t, ReasonEnumViolation, verr.Reason)
		assert.Equal(t, "level", verr.Field)
		assert.Contains(t, verr.Error(), `got "expert"`)
	}
	assert.True(t, IsValidation(err))
	assert.False(t, IsDuplicateKey(err))
}
