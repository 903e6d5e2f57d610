package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/indexes"
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
	"github.com/jas-4484/eduhub/internal/store/memstore"
	"github.com/jas-4484/eduhub/internal/store/storetest"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	for _, e := range indexes.Default() {
		require.NoError(t, s.CreateIndex(context.Background(), e.Spec))
	}
	return s
}

func insert(t *testing.T, s store.Store, collection string, docs ...any) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, s.InsertOne(context.Background(), collection, d))
	}
}

func courseIDs(courses []models.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.CourseID
	}
	return out
}

func TestCoursesByPriceRange(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionCourses,
		models.Course{CourseID: "c-4999", Price: 49.99, IsPublished: true},
		models.Course{CourseID: "c-50", Price: 50, IsPublished: true},
		models.Course{CourseID: "c-120", Price: 120, IsPublished: false},
		models.Course{CourseID: "c-200", Price: 200, IsPublished: true},
		models.Course{CourseID: "c-20001", Price: 200.01, IsPublished: true},
	)
	svc := New(s, clock)
	ctx := context.Background()

	got, err := svc.CoursesByPriceRange(ctx, 50, 200, VisibleOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-50", "c-200"}, courseIDs(got))

	got, err = svc.CoursesByPriceRange(ctx, 50, 200, IncludeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-50", "c-120", "c-200"}, courseIDs(got))

	_, err = svc.CoursesByPriceRange(ctx, 200, 50, VisibleOnly)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = svc.CoursesByPriceRange(ctx, -1, 50, VisibleOnly)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestUsersJoinedWithin(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionUsers,
		models.User{UserID: "u-edge", Email: "edge@example.com", DateJoined: now.AddDate(0, -6, 0), IsActive: true},
		models.User{UserID: "u-old", Email: "old@example.com", DateJoined: now.AddDate(0, -6, 0).Add(-time.Second), IsActive: true},
		models.User{UserID: "u-new", Email: "new@example.com", DateJoined: now.AddDate(0, -1, 0), IsActive: true},
		models.User{UserID: "u-off", Email: "off@example.com", DateJoined: now.AddDate(0, -1, 0), IsActive: false},
	)
	svc := New(s, clock)
	ctx := context.Background()

	got, err := svc.UsersJoinedWithin(ctx, 6, VisibleOnly)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, u := range got {
		ids[i] = u.UserID
	}
	assert.Equal(t, []string{"u-new", "u-edge"}, ids)

	got, err = svc.UsersJoinedWithin(ctx, 6, IncludeAll)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = svc.UsersJoinedWithin(ctx, 0, VisibleOnly)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestEnrollmentsSince(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionEnrollments,
		models.Enrollment{EnrollmentID: "e1", StudentID: "u1", CourseID: "c1", EnrollmentDate: now.AddDate(0, -2, 0)},
		models.Enrollment{EnrollmentID: "e2", StudentID: "u2", CourseID: "c1", EnrollmentDate: now.AddDate(0, 0, -3)},
		models.Enrollment{EnrollmentID: "e3", StudentID: "u3", CourseID: "c1", EnrollmentDate: now.AddDate(-1, 0, 0)},
	)

	got, err := New(s, clock).EnrollmentsSince(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].EnrollmentID)
	assert.Equal(t, "e1", got[1].EnrollmentID)
}

func TestAssignmentsDueNextWeek(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionAssignments,
		models.Assignment{AssignmentID: "a-now", DueDate: now},
		models.Assignment{AssignmentID: "a-past", DueDate: now.Add(-time.Minute)},
		models.Assignment{AssignmentID: "a-3d", DueDate: now.Add(72 * time.Hour)},
		models.Assignment{AssignmentID: "a-7d", DueDate: now.Add(DueWindow)},
	)

	got, err := New(s, clock).AssignmentsDueNextWeek(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.AssignmentID
	}
	assert.Equal(t, []string{"a-now", "a-3d"}, ids)
}

func TestSearchCourses(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	base := now.AddDate(0, -1, 0)
	insert(t, s, models.CollectionCourses,
		models.Course{CourseID: "c1", Title: "Python Basics", Description: "Start with python", CreatedAt: base, IsPublished: true},
		models.Course{CourseID: "c2", Title: "Data Science", Description: "Python for data", CreatedAt: base.Add(time.Hour), IsPublished: true},
		models.Course{CourseID: "c3", Title: "Web with Go", Description: "servers", CreatedAt: base, IsPublished: true},
		models.Course{CourseID: "c4", Title: "Python Draft", Description: "unpublished", CreatedAt: base, IsPublished: false},
	)
	svc := New(s, clock)
	ctx := context.Background()

	got, err := svc.SearchCourses(ctx, "python", VisibleOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, courseIDs(got), "higher relevance first")

	got, err = svc.SearchCourses(ctx, "python", IncludeAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2", "c4"}, courseIDs(got))

	_, err = svc.SearchCourses(ctx, "   ", VisibleOnly)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestCoursesByCategoryAndTags(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionCourses,
		models.Course{CourseID: "c1", Title: "B", Category: "Programming", Tags: []string{"go"}, IsPublished: true},
		models.Course{CourseID: "c2", Title: "A", Category: "Programming", Tags: []string{"python", "data"}, IsPublished: true},
		models.Course{CourseID: "c3", Title: "C", Category: "Design", Tags: []string{"ux"}, IsPublished: true},
	)
	svc := New(s, clock)
	ctx := context.Background()

	got, err := svc.CoursesByCategory(ctx, "Programming", VisibleOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, courseIDs(got))

	got, err = svc.CoursesWithTags(ctx, []string{"data", "ux"}, VisibleOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3"}, courseIDs(got))

	_, err = svc.CoursesWithTags(ctx, nil, VisibleOnly)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestActiveStudents(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionUsers,
		models.User{UserID: "u1", Email: "a@example.com", LastName: "Zed", Role: models.RoleStudent, IsActive: true},
		models.User{UserID: "u2", Email: "b@example.com", LastName: "Abe", Role: models.RoleStudent, IsActive: true},
		models.User{UserID: "u3", Email: "c@example.com", LastName: "Cox", Role: models.RoleStudent, IsActive: false},
		models.User{UserID: "i1", Email: "d@example.com", LastName: "Doe", Role: models.RoleInstructor, IsActive: true},
	)

	got, err := New(s, clock).ActiveStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2", got[0].UserID)
	assert.Equal(t, "u1", got[1].UserID)
}

func TestCourseWithInstructor(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionUsers,
		models.User{UserID: "i1", Email: "i1@example.com", FirstName: "Grace", LastName: "Hopper", Profile: models.UserProfile{Bio: "compilers"}},
	)
	insert(t, s, models.CollectionCourses,
		models.Course{CourseID: "c1", Title: "Compilers", InstructorID: "i1"},
		models.Course{CourseID: "c2", Title: "Orphan", InstructorID: "gone"},
	)
	svc := New(s, clock)
	ctx := context.Background()

	got, err := svc.CourseWithInstructor(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Compilers", got.Title)
	require.NotNil(t, got.Instructor)
	assert.Equal(t, "compilers", got.Instructor.Bio)

	got, err = svc.CourseWithInstructor(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, got.Instructor)

	_, err = svc.CourseWithInstructor(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestEnrolledStudentsAndLessons(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insert(t, s, models.CollectionUsers,
		models.User{UserID: "u1", Email: "u1@example.com", FirstName: "Ada"},
	)
	insert(t, s, models.CollectionCourses, models.Course{CourseID: "c1"})
	insert(t, s, models.CollectionEnrollments,
		models.Enrollment{EnrollmentID: "e2", StudentID: "ghost", CourseID: "c1", EnrollmentDate: now},
		models.Enrollment{EnrollmentID: "e1", StudentID: "u1", CourseID: "c1", EnrollmentDate: now.Add(-time.Hour), Status: models.StatusActive, Progress: 40},
	)
	insert(t, s, models.CollectionLessons,
		models.Lesson{LessonID: "l2", CourseID: "c1", Order: 2},
		models.Lesson{LessonID: "l1", CourseID: "c1", Order: 1},
		models.Lesson{LessonID: "lx", CourseID: "c9", Order: 1},
	)
	svc := New(s, clock)
	ctx := context.Background()

	students, err := svc.EnrolledStudents(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada", students[0].FirstName)
	assert.Equal(t, 40.0, students[0].Progress)
	assert.Equal(t, "ghost", students[1].StudentID)
	assert.Empty(t, students[1].FirstName)

	lessons, err := svc.CourseLessons(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "l1", lessons[0].LessonID)
	assert.Equal(t, "l2", lessons[1].LessonID)
}

func TestStoreFailureSurfaces(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	svc := New(&storetest.Failing{Store: newStore(t), Err: boom}, clock)

	_, err := svc.CoursesByPriceRange(context.Background(), 0, 10, VisibleOnly)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueryExecution)
	assert.ErrorIs(t, err, boom)

	var qerr *errors.QueryExecutionError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, models.CollectionCourses, qerr.Collection)
}
