package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
)

func validUser() bson.M {
	return bson.M{
		"userId":     "u1",
		"email":      "ada@example.com",
		"firstName":  "Ada",
		"lastName":   "Lovelace",
		"role":       "student",
		"dateJoined": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"profile":    bson.M{"bio": "", "avatar": "", "skills": bson.A{"math"}},
		"isActive":   true,
	}
}

func reasonOf(t *testing.T, err error) errors.Reason {
	t.Helper()
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Reason
}

func TestValidate_Email(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		ok    bool
	}{
		{email: "ada@example.com", ok: true},
		{email: "user.name@domain.co.uk", ok: true},
		{email: "first+tag@sub.example.org", ok: true},
		{email: "invalid-email", ok: false},
		{email: "@domain.com", ok: false},
		{email: "user@", ok: false},
		{email: "user@domain.c", ok: false},
		{email: "user@domain.c0m", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			doc := validUser()
			doc["email"] = tt.email
			err := Validate(models.CollectionUsers, doc)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, errors.ReasonPatternViolation, reasonOf(t, err))
		})
	}
}

func TestValidate_Reasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(bson.M)
		field  string
		reason errors.Reason
	}{
		{name: "missing email", mutate: func(d bson.M) { delete(d, "email") }, field: "email", reason: errors.ReasonMissingField},
		{name: "empty first name", mutate: func(d bson.M) { d["firstName"] = "  " }, field: "firstName", reason: errors.ReasonMissingField},
		{name: "role outside enum", mutate: func(d bson.M) { d["role"] = "admin" }, field: "role", reason: errors.ReasonEnumViolation},
		{name: "isActive not boolean", mutate: func(d bson.M) { d["isActive"] = "yes" }, field: "isActive", reason: errors.ReasonTypeMismatch},
		{name: "dateJoined not date", mutate: func(d bson.M) { d["dateJoined"] = "2024-03-01" }, field: "dateJoined", reason: errors.ReasonTypeMismatch},
		{name: "nested skills not array", mutate: func(d bson.M) { d["profile"] = bson.M{"skills": "go"} }, field: "profile.skills", reason: errors.ReasonTypeMismatch},
		{name: "null non-nullable", mutate: func(d bson.M) { d["lastName"] = nil }, field: "lastName", reason: errors.ReasonMissingField},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := validUser()
			tt.mutate(doc)

			err := Validate(models.CollectionUsers, doc)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestValidate_NullableUnion(t *testing.T) {
	t.Parallel()

	doc := bson.M{
		"submissionId": "s1",
		"assignmentId": "a1",
		"studentId":    "u1",
		"grade":        nil,
		"feedback":     nil,
		"gradedDate":   nil,
	}
	assert.NoError(t, Validate(models.CollectionSubmissions, doc))

	doc["grade"] = "A"
	assert.Equal(t, errors.ReasonTypeMismatch, reasonOf(t, Validate(models.CollectionSubmissions, doc)))
}

func TestValidate_UnknownEntity(t *testing.T) {
	t.Parallel()

	err := Validate("widgets", bson.M{})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestValidateRecord(t *testing.T) {
	t.Parallel()

	grade := 90.0
	course := models.Course{
		CourseID:     "c1",
		Title:        "Go",
		InstructorID: "i1",
		Category:     "Programming",
		Level:        models.LevelBeginner,
		Price:        99.99,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	assert.NoError(t, ValidateRecord(models.CollectionCourses, course))

	course.Level = "expert"
	assert.Equal(t, errors.ReasonEnumViolation, reasonOf(t, ValidateRecord(models.CollectionCourses, course)))

	enrollment := models.Enrollment{EnrollmentID: "e1", StudentID: "u1", CourseID: "c1", Status: "paused"}
	assert.Equal(t, errors.ReasonEnumViolation, reasonOf(t, ValidateRecord(models.CollectionEnrollments, enrollment)))

	sub := models.Submission{SubmissionID: "s1", AssignmentID: "a1", StudentID: "u1", Grade: &grade}
	assert.NoError(t, ValidateRecord(models.CollectionSubmissions, sub))
}
