package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
)

func (s *Service) course(ctx context.Context, op, courseID string) (*models.Course, error) {
	var courses []models.Course
	opts := &store.FindOptions{Limit: 1}
	if err := s.find(ctx, op, models.CollectionCourses, bson.D{{Key: "courseId", Value: courseID}}, opts, &courses); err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "course %q", courseID)
	}
	return &courses[0], nil
}

// CourseWithInstructor resolves a course and its instructor. A dangling
// instructor reference leaves Instructor nil.
func (s *Service) CourseWithInstructor(ctx context.Context, courseID string) (*models.CourseWithInstructor, error) {
	const op = "CourseWithInstructor"
	c, err := s.course(ctx, op, courseID)
	if err != nil {
		return nil, err
	}

	var users []models.User
	opts := &store.FindOptions{Limit: 1}
	if err := s.find(ctx, op, models.CollectionUsers, bson.D{{Key: "userId", Value: c.InstructorID}}, opts, &users); err != nil {
		return nil, err
	}

	out := &models.CourseWithInstructor{Course: *c}
	if len(users) > 0 {
		u := users[0]
		out.Instructor = &models.InstructorSummary{
			UserID:    u.UserID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Bio:       u.Profile.Bio,
		}
	}
	return out, nil
}

// EnrolledStudents lists a course's enrollments joined with the enrolled
// users, in enrollment order. Students that no longer resolve keep their
// enrollment fields with empty names.
func (s *Service) EnrolledStudents(ctx context.Context, courseID string) ([]models.EnrolledStudent, error) {
	const op = "EnrolledStudents"
	if _, err := s.course(ctx, op, courseID); err != nil {
		return nil, err
	}

	var enrollments []models.Enrollment
	opts := &store.FindOptions{Sort: bson.D{{Key: "enrollmentDate", Value: 1}, {Key: "enrollmentId", Value: 1}}}
	if err := s.find(ctx, op, models.CollectionEnrollments, bson.D{{Key: "courseId", Value: courseID}}, opts, &enrollments); err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []models.EnrolledStudent{}, nil
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	var users []models.User
	if err := s.find(ctx, op, models.CollectionUsers, bson.D{{Key: "userId", Value: bson.D{{Key: "$in", Value: ids}}}}, nil, &users); err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	out := make([]models.EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		u := byID[e.StudentID]
		out = append(out, models.EnrolledStudent{
			EnrollmentID:   e.EnrollmentID,
			StudentID:      e.StudentID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Email:          u.Email,
			Status:         e.Status,
			Progress:       e.Progress,
			EnrollmentDate: e.EnrollmentDate,
		})
	}
	return out, nil
}

// CourseLessons returns a course's lessons by their order within the course.
func (s *Service) CourseLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var out []models.Lesson
	opts := &store.FindOptions{Sort: bson.D{{Key: "order", Value: 1}, {Key: "lessonId", Value: 1}}}
	if err := s.find(ctx, "CourseLessons", models.CollectionLessons, bson.D{{Key: "courseId", Value: courseID}}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}
