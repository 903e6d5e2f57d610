package records

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
)

func (w *Writer) update(ctx context.Context, collection, keyField, id string, update bson.D) error {
	matched, err := w.store.UpdateOne(ctx, collection, bson.D{{Key: keyField, Value: id}}, update)
	if index, dup := store.DuplicateKey(err); dup {
		return &errors.DuplicateKeyError{Collection: collection, Key: index, Err: err}
	}
	if err != nil {
		return errors.Wrapf(err, "update %s %s", collection, id)
	}
	if matched == 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s %q", collection, id)
	}
	return nil
}

func set(fields ...bson.E) bson.D {
	return bson.D{{Key: "$set", Value: bson.D(fields)}}
}

// DeactivateUser soft-deletes a user. Every reference to the user stays valid.
func (w *Writer) DeactivateUser(ctx context.Context, userID string) error {
	return w.update(ctx, models.CollectionUsers, "userId", userID, set(bson.E{Key: "isActive", Value: false}))
}

// ProfileUpdate changes only the fields that are non-nil.
type ProfileUpdate struct {
	Bio    *string
	Avatar *string
	Skills []string
}

func (w *Writer) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error {
	var fields []bson.E
	if p.Bio != nil {
		fields = append(fields, bson.E{Key: "profile.bio", Value: *p.Bio})
	}
	if p.Avatar != nil {
		fields = append(fields, bson.E{Key: "profile.avatar", Value: *p.Avatar})
	}
	if p.Skills != nil {
		fields = append(fields, bson.E{Key: "profile.skills", Value: p.Skills})
	}
	if len(fields) == 0 {
		return errors.Wrap(errors.ErrInvalidArgument, "empty profile update")
	}
	return w.update(ctx, models.CollectionUsers, "userId", userID, set(fields...))
}

func (w *Writer) PublishCourse(ctx context.Context, courseID string) error {
	return w.update(ctx, models.CollectionCourses, "courseId", courseID, set(
		bson.E{Key: "isPublished", Value: true},
		bson.E{Key: "updatedAt", Value: w.now()},
	))
}

// AddCourseTags adds the tags a course does not carry yet.
func (w *Writer) AddCourseTags(ctx context.Context, courseID string, tags ...string) error {
	if len(tags) == 0 {
		return errors.Wrap(errors.ErrInvalidArgument, "no tags given")
	}
	return w.update(ctx, models.CollectionCourses, "courseId", courseID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "tags", Value: bson.D{{Key: "$each", Value: tags}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: w.now()}}},
	})
}

// GradeSubmission moves a submission to the graded state, setting grade,
// feedback and gradedDate together. The grade must lie within the
// assignment's points.
func (w *Writer) GradeSubmission(ctx context.Context, submissionID string, grade float64, feedback string) error {
	var found []models.Submission
	filter := bson.D{{Key: "submissionId", Value: submissionID}}
	if err := w.store.Find(ctx, models.CollectionSubmissions, filter, &store.FindOptions{Limit: 1}, &found); err != nil {
		return errors.NewQueryExecutionError("GradeSubmission", models.CollectionSubmissions, err)
	}
	if len(found) == 0 {
		return errors.Wrapf(errors.ErrNotFound, "submission %q", submissionID)
	}
	a, err := w.assignment(ctx, found[0].AssignmentID)
	if err != nil {
		return err
	}

	now := w.now()
	graded := found[0]
	graded.Grade, graded.Feedback, graded.GradedDate = &grade, &feedback, &now
	if err := graded.Validate(a.MaxPoints); err != nil {
		return err
	}
	return w.update(ctx, models.CollectionSubmissions, "submissionId", submissionID, set(
		bson.E{Key: "grade", Value: grade},
		bson.E{Key: "feedback", Value: feedback},
		bson.E{Key: "gradedDate", Value: now},
	))
}

// UpdateProgress records progress on an active enrollment. Reaching 100
// completes it and stamps its completion date. Dropped enrollments take no
// progress, and a completed one only accepts 100 again, which changes
// nothing.
func (w *Writer) UpdateProgress(ctx context.Context, enrollmentID string, progress float64) error {
	var found []models.Enrollment
	filter := bson.D{{Key: "enrollmentId", Value: enrollmentID}}
	if err := w.store.Find(ctx, models.CollectionEnrollments, filter, &store.FindOptions{Limit: 1}, &found); err != nil {
		return errors.NewQueryExecutionError("UpdateProgress", models.CollectionEnrollments, err)
	}
	if len(found) == 0 {
		return errors.Wrapf(errors.ErrNotFound, "enrollment %q", enrollmentID)
	}

	e := found[0]
	switch e.Status {
	case models.StatusDropped:
		return errors.NewValidationError(models.CollectionEnrollments, "status",
			errors.ReasonInvariantViolation, "enrollment %q is dropped", enrollmentID)
	case models.StatusCompleted:
		if progress == 100 {
			return nil
		}
		return errors.NewValidationError(models.CollectionEnrollments, "progress",
			errors.ReasonInvariantViolation, "enrollment %q is completed; progress cannot fall to %v", enrollmentID, progress)
	}

	e.Progress = progress
	fields := []bson.E{{Key: "progress", Value: progress}}
	if progress == 100 {
		now := w.now()
		e.Status, e.CompletionDate = models.StatusCompleted, &now
		fields = append(fields,
			bson.E{Key: "status", Value: models.StatusCompleted},
			bson.E{Key: "completionDate", Value: now})
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return w.update(ctx, models.CollectionEnrollments, "enrollmentId", enrollmentID, set(fields...))
}

func (w *Writer) RemoveEnrollment(ctx context.Context, enrollmentID string) error {
	return w.delete(ctx, models.CollectionEnrollments, "enrollmentId", enrollmentID)
}

func (w *Writer) DeleteLesson(ctx context.Context, lessonID string) error {
	return w.delete(ctx, models.CollectionLessons, "lessonId", lessonID)
}

func (w *Writer) delete(ctx context.Context, collection, keyField, id string) error {
	n, err := w.store.DeleteOne(ctx, collection, bson.D{{Key: keyField, Value: id}})
	if err != nil {
		return errors.Wrapf(err, "delete %s %s", collection, id)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s %q", collection, id)
	}
	return nil
}
