// Package records performs the validated writes that populate the entity
// collections. Each insert passes the schema rules and the record's own
// invariants, resolves its references, and turns a store uniqueness
// rejection into *errors.DuplicateKeyError. Nothing is retried.
package records

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/schema"
	"github.com/jas-4484/eduhub/internal/store"
)

type Writer struct {
	store store.Store
	now   func() time.Time
}

// New returns a Writer on s. A nil clock means time.Now.
func New(s store.Store, clock func() time.Time) *Writer {
	if clock == nil {
		clock = time.Now
	}
	return &Writer{store: s, now: clock}
}

// newID builds a business key for records created without one.
func newID(prefix string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func (w *Writer) insert(ctx context.Context, collection string, record any) error {
	err := w.store.InsertOne(ctx, collection, record)
	if index, dup := store.DuplicateKey(err); dup {
		return &errors.DuplicateKeyError{Collection: collection, Key: index, Err: err}
	}
	return errors.Wrapf(err, "insert into %s", collection)
}

// exists checks that a referenced document is present.
func (w *Writer) exists(ctx context.Context, collection, field, id string, entity string) error {
	n, err := w.store.Count(ctx, collection, bson.D{{Key: field, Value: id}})
	if err != nil {
		return errors.NewQueryExecutionError("resolve "+entity, collection, err)
	}
	if n == 0 {
		return &errors.ReferenceNotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func (w *Writer) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.UserID == "" {
		prefix := "USR"
		if u.Role == models.RoleStudent {
			prefix = "STU"
		} else if u.Role == models.RoleInstructor {
			prefix = "INS"
		}
		u.UserID = newID(prefix)
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = w.now()
	}
	u.Email = strings.TrimSpace(u.Email)
	if u.Profile.Skills == nil {
		u.Profile.Skills = []string{}
	}
	if err := schema.ValidateRecord(models.CollectionUsers, u); err != nil {
		return models.User{}, err
	}
	if err := w.insert(ctx, models.CollectionUsers, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// CreateCourse inserts an unpublished course owned by an existing instructor.
func (w *Writer) CreateCourse(ctx context.Context, c models.Course) (models.Course, error) {
	if c.CourseID == "" {
		c.CourseID = newID("COURSE")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = w.now()
	}
	c.UpdatedAt = c.CreatedAt
	c.IsPublished = false
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if err := schema.ValidateRecord(models.CollectionCourses, c); err != nil {
		return models.Course{}, err
	}
	if err := w.exists(ctx, models.CollectionUsers, "userId", c.InstructorID, "user"); err != nil {
		return models.Course{}, err
	}
	if err := w.insert(ctx, models.CollectionCourses, c); err != nil {
		return models.Course{}, err
	}
	return c, nil
}

// Enroll inserts an active enrollment. A second enrollment of the same
// student in the same course is rejected by the store's compound index.
func (w *Writer) Enroll(ctx context.Context, studentID, courseID string) (models.Enrollment, error) {
	e := models.Enrollment{
		EnrollmentID:   newID("ENROLL"),
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: w.now(),
		Status:         models.StatusActive,
	}
	if err := schema.ValidateRecord(models.CollectionEnrollments, e); err != nil {
		return models.Enrollment{}, err
	}
	if err := e.Validate(); err != nil {
		return models.Enrollment{}, err
	}
	if err := w.exists(ctx, models.CollectionUsers, "userId", studentID, "user"); err != nil {
		return models.Enrollment{}, err
	}
	if err := w.exists(ctx, models.CollectionCourses, "courseId", courseID, "course"); err != nil {
		return models.Enrollment{}, err
	}
	if err := w.insert(ctx, models.CollectionEnrollments, e); err != nil {
		return models.Enrollment{}, err
	}
	return e, nil
}

// AddLesson appends a lesson to a course. A zero Order places it after the
// course's current last lesson.
func (w *Writer) AddLesson(ctx context.Context, l models.Lesson) (models.Lesson, error) {
	if l.LessonID == "" {
		l.LessonID = newID("LESSON")
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = w.now()
	}
	if l.Materials == nil {
		l.Materials = []string{}
	}
	if err := schema.ValidateRecord(models.CollectionLessons, l); err != nil {
		return models.Lesson{}, err
	}
	if err := w.exists(ctx, models.CollectionCourses, "courseId", l.CourseID, "course"); err != nil {
		return models.Lesson{}, err
	}
	if l.Order == 0 {
		var last []models.Lesson
		opts := &store.FindOptions{Sort: bson.D{{Key: "order", Value: -1}}, Limit: 1}
		if err := w.store.Find(ctx, models.CollectionLessons, bson.D{{Key: "courseId", Value: l.CourseID}}, opts, &last); err != nil {
			return models.Lesson{}, errors.NewQueryExecutionError("AddLesson", models.CollectionLessons, err)
		}
		l.Order = 1
		if len(last) > 0 {
			l.Order = last[0].Order + 1
		}
	}
	if err := w.insert(ctx, models.CollectionLessons, l); err != nil {
		return models.Lesson{}, err
	}
	return l, nil
}

func (w *Writer) CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.AssignmentID == "" {
		a.AssignmentID = newID("ASSIGN")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = w.now()
	}
	if err := schema.ValidateRecord(models.CollectionAssignments, a); err != nil {
		return models.Assignment{}, err
	}
	if err := w.exists(ctx, models.CollectionCourses, "courseId", a.CourseID, "course"); err != nil {
		return models.Assignment{}, err
	}
	if err := w.insert(ctx, models.CollectionAssignments, a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

func (w *Writer) assignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	var found []models.Assignment
	filter := bson.D{{Key: "assignmentId", Value: assignmentID}}
	if err := w.store.Find(ctx, models.CollectionAssignments, filter, &store.FindOptions{Limit: 1}, &found); err != nil {
		return nil, errors.NewQueryExecutionError("resolve assignment", models.CollectionAssignments, err)
	}
	if len(found) == 0 {
		return nil, &errors.ReferenceNotFoundError{Entity: "assignment", ID: assignmentID}
	}
	return &found[0], nil
}

// Submit inserts a submission, ungraded unless the grade trio is supplied.
func (w *Writer) Submit(ctx context.Context, s models.Submission) (models.Submission, error) {
	if s.SubmissionID == "" {
		s.SubmissionID = newID("SUB")
	}
	if s.SubmissionDate.IsZero() {
		s.SubmissionDate = w.now()
	}
	if s.Attachments == nil {
		s.Attachments = []string{}
	}
	if err := schema.ValidateRecord(models.CollectionSubmissions, s); err != nil {
		return models.Submission{}, err
	}
	a, err := w.assignment(ctx, s.AssignmentID)
	if err != nil {
		return models.Submission{}, err
	}
	if err := s.Validate(a.MaxPoints); err != nil {
		return models.Submission{}, err
	}
	if err := w.exists(ctx, models.CollectionUsers, "userId", s.StudentID, "user"); err != nil {
		return models.Submission{}, err
	}
	if err := w.insert(ctx, models.CollectionSubmissions, s); err != nil {
		return models.Submission{}, err
	}
	return s, nil
}
