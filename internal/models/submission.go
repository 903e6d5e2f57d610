package models

import (
	"time"

	apperrors "github.com/jas-4484/eduhub/internal/errors"
)

// Submission is either ungraded (Grade, Feedback and GradedDate all nil) or
// graded (all three set).
type Submission struct {
	SubmissionID   string     `json:"submissionId" bson:"submissionId"`
	AssignmentID   string     `json:"assignmentId" bson:"assignmentId"`
	StudentID      string     `json:"studentId" bson:"studentId"`
	SubmissionDate time.Time  `json:"submissionDate" bson:"submissionDate"`
	Content        string     `json:"content" bson:"content"`
	Attachments    []string   `json:"attachments" bson:"attachments"`
	Grade          *float64   `json:"grade" bson:"grade"`
	Feedback       *string    `json:"feedback" bson:"feedback"`
	GradedDate     *time.Time `json:"gradedDate" bson:"gradedDate"`
}

func (Submission) CollectionName() string { return CollectionSubmissions }

func (s Submission) IsGraded() bool { return s.Grade != nil }

// Validate checks the graded/ungraded union. maxPoints <= 0 skips the upper
// bound check.
func (s Submission) Validate(maxPoints float64) error {
	set := 0
	for _, ok := range []bool{s.Grade != nil, s.Feedback != nil, s.GradedDate != nil} {
		if ok {
			set++
		}
	}
	if set != 0 && set != 3 {
		return apperrors.NewValidationError(CollectionSubmissions, "grade",
			apperrors.ReasonInvariantViolation, "grade, feedback and gradedDate must be set together")
	}
	if s.Grade == nil {
		return nil
	}
	if *s.Grade < 0 || (maxPoints > 0 && *s.Grade > maxPoints) {
		return apperrors.NewValidationError(CollectionSubmissions, "grade",
			apperrors.ReasonInvariantViolation, "grade %v outside [0,%v]", *s.Grade, maxPoints)
	}
	return nil
}
