// Package indexes declares the indexes each collection needs for the query
// and analytics read paths, and reconciles that declaration with the store.
package indexes

import (
	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/store"
)

// Entry is one declared index with the read path it serves.
type Entry struct {
	Spec    store.IndexSpec
	Purpose string
}

type Catalog []Entry

func asc(fields ...string) []store.IndexKey {
	keys := make([]store.IndexKey, len(fields))
	for i, f := range fields {
		keys[i] = store.IndexKey{Field: f, Type: store.Ascending}
	}
	return keys
}

func text(fields ...string) []store.IndexKey {
	keys := make([]store.IndexKey, len(fields))
	for i, f := range fields {
		keys[i] = store.IndexKey{Field: f, Type: store.Text}
	}
	return keys
}

func entry(collection string, keys []store.IndexKey, unique bool, purpose string) Entry {
	return Entry{
		Spec:    store.IndexSpec{Collection: collection, Keys: keys, Unique: unique},
		Purpose: purpose,
	}
}

// Default returns the catalog the service runs with.
func Default() Catalog {
	return Catalog{
		entry(models.CollectionUsers, asc("email"), true, "identity lookup, duplicate prevention"),
		entry(models.CollectionUsers, asc("userId"), true, "business-key lookup"),
		entry(models.CollectionUsers, asc("role", "isActive"), false, "active student and instructor scans"),

		entry(models.CollectionCourses, asc("courseId"), true, "business-key lookup"),
		entry(models.CollectionCourses, asc("category"), false, "category filtering"),
		entry(models.CollectionCourses, text("title", "description"), false, "discovery search"),
		entry(models.CollectionCourses, asc("price"), false, "price range queries"),
		entry(models.CollectionCourses, asc("instructorId"), false, "instructor joins"),

		entry(models.CollectionEnrollments, asc("studentId", "courseId"), true, "one enrollment per student and course"),
		entry(models.CollectionEnrollments, asc("enrollmentDate"), false, "recency and monthly trends"),
		entry(models.CollectionEnrollments, asc("enrollmentId"), true, "business-key lookup"),
		entry(models.CollectionEnrollments, asc("courseId"), false, "course joins"),

		entry(models.CollectionLessons, asc("lessonId"), true, "business-key lookup"),
		entry(models.CollectionLessons, asc("courseId", "order"), false, "ordered lessons of a course"),

		entry(models.CollectionAssignments, asc("dueDate"), false, "due-date window queries"),
		entry(models.CollectionAssignments, asc("assignmentId"), true, "business-key lookup"),
		entry(models.CollectionAssignments, asc("courseId"), false, "course joins"),

		entry(models.CollectionSubmissions, asc("submissionId"), true, "business-key lookup"),
		entry(models.CollectionSubmissions, asc("studentId", "assignmentId"), false, "student performance joins"),
	}
}

// Collection returns the entries declared for one collection, in order.
func (c Catalog) Collection(name string) []Entry {
	var out []Entry
	for _, e := range c {
		if e.Spec.Collection == name {
			out = append(out, e)
		}
	}
	return out
}

// Covers returns the declared entry whose leading key is field, if any. A
// text index covers a $text filter.
func (c Catalog) Covers(collection, field string) (Entry, bool) {
	for _, e := range c.Collection(collection) {
		if len(e.Spec.Keys) == 0 {
			continue
		}
		if field == "$text" && e.Spec.IsText() {
			return e, true
		}
		if !e.Spec.IsText() && e.Spec.Keys[0].Field == field {
			return e, true
		}
	}
	return Entry{}, false
}
