package models

// Collection names as stored.
const (
	CollectionUsers       = "users"
	CollectionCourses     = "courses"
	CollectionEnrollments = "enrollments"
	CollectionLessons     = "lessons"
	CollectionAssignments = "assignments"
	CollectionSubmissions = "submissions"
)

// Collections lists every entity collection.
func Collections() []string {
	return []string{
		CollectionUsers,
		CollectionCourses,
		CollectionEnrollments,
		CollectionLessons,
		CollectionAssignments,
		CollectionSubmissions,
	}
}
