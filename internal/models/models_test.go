package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jas-4484/eduhub/internal/errors"
)

func TestEnrollmentValidate(t *testing.T) {
	t.Parallel()
	done := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		e       Enrollment
		wantErr bool
	}{
		{name: "active in progress", e: Enrollment{Status: StatusActive, Progress: 40}},
		{name: "completed with date", e: Enrollment{Status: StatusCompleted, Progress: 100, CompletionDate: &done}},
		{name: "negative progress", e: Enrollment{Status: StatusActive, Progress: -1}, wantErr: true},
		{name: "progress above 100", e: Enrollment{Status: StatusActive, Progress: 100.5}, wantErr: true},
		{name: "completion date while active", e: Enrollment{Status: StatusActive, CompletionDate: &done}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.e.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestSubmissionValidate(t *testing.T) {
	t.Parallel()
	grade, over, negative := 85.0, 120.0, -5.0
	feedback := "ok"
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		s       Submission
		max     float64
		wantErr bool
	}{
		{name: "ungraded", s: Submission{}, max: 100},
		{name: "graded", s: Submission{Grade: &grade, Feedback: &feedback, GradedDate: &at}, max: 100},
		{name: "grade without feedback", s: Submission{Grade: &grade, GradedDate: &at}, max: 100, wantErr: true},
		{name: "feedback alone", s: Submission{Feedback: &feedback}, max: 100, wantErr: true},
		{name: "above max points", s: Submission{Grade: &over, Feedback: &feedback, GradedDate: &at}, max: 100, wantErr: true},
		{name: "no upper bound", s: Submission{Grade: &over, Feedback: &feedback, GradedDate: &at}},
		{name: "negative", s: Submission{Grade: &negative, Feedback: &feedback, GradedDate: &at}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.s.Validate(tt.max)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *apperrors.ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, apperrors.ReasonInvariantViolation, verr.Reason)
			}
		})
	}
	assert.True(t, Submission{Grade: &grade}.IsGraded())
	assert.False(t, Submission{}.IsGraded())
}

func TestFullName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.FullName())
}
