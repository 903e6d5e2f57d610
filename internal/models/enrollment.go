package models

import (
	"time"

	apperrors "github.com/jas-4484/eduhub/internal/errors"
)

type EnrollmentStatus string

const (
	StatusActive    EnrollmentStatus = "active"
	StatusCompleted EnrollmentStatus = "completed"
	StatusDropped   EnrollmentStatus = "dropped"
)

// Enrollment is unique on (StudentID, CourseID).
type Enrollment struct {
	EnrollmentID   string           `json:"enrollmentId" bson:"enrollmentId"`
	StudentID      string           `json:"studentId" bson:"studentId"`
	CourseID       string           `json:"courseId" bson:"courseId"`
	EnrollmentDate time.Time        `json:"enrollmentDate" bson:"enrollmentDate"`
	Status         EnrollmentStatus `json:"status" bson:"status"`
	Progress       float64          `json:"progress" bson:"progress"`
	CompletionDate *time.Time       `json:"completionDate" bson:"completionDate"`
}

func (Enrollment) CollectionName() string { return CollectionEnrollments }

// Validate checks the cross-field rules the schema cannot express.
func (e Enrollment) Validate() error {
	if e.Progress < 0 || e.Progress > 100 {
		return apperrors.NewValidationError(CollectionEnrollments, "progress",
			apperrors.ReasonInvariantViolation, "progress %v outside [0,100]", e.Progress)
	}
	if e.CompletionDate != nil && e.Status != StatusCompleted {
		return apperrors.NewValidationError(CollectionEnrollments, "completionDate",
			apperrors.ReasonInvariantViolation, "completionDate set while status is %q", e.Status)
	}
	return nil
}
