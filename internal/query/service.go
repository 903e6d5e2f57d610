// Package query holds the parameterized single-collection reads: price range,
// recency and due-date windows, text discovery, and the lookups that resolve
// one entity against another by business key.
package query

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
)

// Visibility selects whether unpublished courses and inactive users are
// returned.
type Visibility int

const (
	VisibleOnly Visibility = iota
	IncludeAll
)

// DueWindow is the span AssignmentsDueNextWeek looks ahead.
const DueWindow = 7 * 24 * time.Hour

type Service struct {
	store store.Store
	now   func() time.Time
}

// New returns a Service reading from s. A nil clock means time.Now.
func New(s store.Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: s, now: clock}
}

func (s *Service) find(ctx context.Context, op, collection string, filter bson.D, opts *store.FindOptions, results any) error {
	return errors.NewQueryExecutionError(op, collection, s.store.Find(ctx, collection, filter, opts, results))
}

func published(filter bson.D, vis Visibility) bson.D {
	if vis == VisibleOnly {
		filter = append(filter, bson.E{Key: "isPublished", Value: true})
	}
	return filter
}

func active(filter bson.D, vis Visibility) bson.D {
	if vis == VisibleOnly {
		filter = append(filter, bson.E{Key: "isActive", Value: true})
	}
	return filter
}

// CoursesByPriceRange returns courses priced within [min, max], cheapest first.
func (s *Service) CoursesByPriceRange(ctx context.Context, min, max float64, vis Visibility) ([]models.Course, error) {
	if min < 0 || max < min {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "price range [%v, %v]", min, max)
	}
	filter := published(bson.D{
		{Key: "price", Value: bson.D{{Key: "$gte", Value: min}, {Key: "$lte", Value: max}}},
	}, vis)
	opts := &store.FindOptions{Sort: bson.D{{Key: "price", Value: 1}, {Key: "courseId", Value: 1}}}

	var out []models.Course
	if err := s.find(ctx, "CoursesByPriceRange", models.CollectionCourses, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// windowStart is the inclusive lower bound of a months-long recency window.
func (s *Service) windowStart(months int) (time.Time, error) {
	if months <= 0 {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidArgument, "months must be positive, got %d", months)
	}
	return s.now().AddDate(0, -months, 0), nil
}

// UsersJoinedWithin returns users whose dateJoined is at or after now minus
// the given number of calendar months, newest first.
func (s *Service) UsersJoinedWithin(ctx context.Context, months int, vis Visibility) ([]models.User, error) {
	since, err := s.windowStart(months)
	if err != nil {
		return nil, err
	}
	filter := active(bson.D{{Key: "dateJoined", Value: bson.D{{Key: "$gte", Value: since}}}}, vis)
	opts := &store.FindOptions{Sort: bson.D{{Key: "dateJoined", Value: -1}, {Key: "userId", Value: 1}}}

	var out []models.User
	if err := s.find(ctx, "UsersJoinedWithin", models.CollectionUsers, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnrollmentsSince applies the same recency window to enrollmentDate.
func (s *Service) EnrollmentsSince(ctx context.Context, months int) ([]models.Enrollment, error) {
	since, err := s.windowStart(months)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "enrollmentDate", Value: bson.D{{Key: "$gte", Value: since}}}}
	opts := &store.FindOptions{Sort: bson.D{{Key: "enrollmentDate", Value: -1}, {Key: "enrollmentId", Value: 1}}}

	var out []models.Enrollment
	if err := s.find(ctx, "EnrollmentsSince", models.CollectionEnrollments, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignmentsDueNextWeek returns assignments due in [now, now+7d), soonest
// first.
func (s *Service) AssignmentsDueNextWeek(ctx context.Context) ([]models.Assignment, error) {
	now := s.now()
	filter := bson.D{{Key: "dueDate", Value: bson.D{
		{Key: "$gte", Value: now},
		{Key: "$lt", Value: now.Add(DueWindow)},
	}}}
	opts := &store.FindOptions{Sort: bson.D{{Key: "dueDate", Value: 1}, {Key: "assignmentId", Value: 1}}}

	var out []models.Assignment
	if err := s.find(ctx, "AssignmentsDueNextWeek", models.CollectionAssignments, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchCourses runs a full-text search over title and description, ranked
// by relevance and then by createdAt, newest first.
func (s *Service) SearchCourses(ctx context.Context, term string, vis Visibility) ([]models.Course, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.Wrap(errors.ErrInvalidArgument, "empty search term")
	}
	filter := published(bson.D{
		{Key: "$text", Value: bson.D{{Key: "$search", Value: term}}},
	}, vis)
	opts := &store.FindOptions{Sort: bson.D{
		{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}},
		{Key: "createdAt", Value: -1},
	}}

	var out []models.Course
	if err := s.find(ctx, "SearchCourses", models.CollectionCourses, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CoursesByCategory(ctx context.Context, category string, vis Visibility) ([]models.Course, error) {
	filter := published(bson.D{{Key: "category", Value: category}}, vis)
	opts := &store.FindOptions{Sort: bson.D{{Key: "title", Value: 1}, {Key: "courseId", Value: 1}}}

	var out []models.Course
	if err := s.find(ctx, "CoursesByCategory", models.CollectionCourses, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoursesWithTags returns courses carrying at least one of tags.
func (s *Service) CoursesWithTags(ctx context.Context, tags []string, vis Visibility) ([]models.Course, error) {
	if len(tags) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidArgument, "no tags given")
	}
	filter := published(bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: tags}}}}, vis)
	opts := &store.FindOptions{Sort: bson.D{{Key: "courseId", Value: 1}}}

	var out []models.Course
	if err := s.find(ctx, "CoursesWithTags", models.CollectionCourses, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ActiveStudents(ctx context.Context) ([]models.User, error) {
	filter := bson.D{
		{Key: "role", Value: models.RoleStudent},
		{Key: "isActive", Value: true},
	}
	opts := &store.FindOptions{Sort: bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}, {Key: "userId", Value: 1}}}

	var out []models.User
	if err := s.find(ctx, "ActiveStudents", models.CollectionUsers, filter, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}
