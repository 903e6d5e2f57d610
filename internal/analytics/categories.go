package analytics

import (
	"context"
	"sort"

	"github.com/jas-4484/eduhub/internal/models"
)

// CategoryOrder selects how category groups are ordered.
type CategoryOrder int

const (
	ByCategory CategoryOrder = iota
	ByEnrollments
)

type categoryRow struct {
	Category         string  `bson:"_id"`
	TotalCourses     int     `bson:"totalCourses"`
	TotalEnrollments int     `bson:"totalEnrollments"`
	AveragePrice     float64 `bson:"averagePrice"`
	Courses          []struct {
		CourseID        string  `bson:"courseId"`
		Title           string  `bson:"title"`
		EnrollmentCount int     `bson:"enrollmentCount"`
		Price           float64 `bson:"price"`
	} `bson:"courses"`
}

// CourseEnrollmentStats groups courses by category with course count,
// enrollment count and average price. Courses without a category are left
// out. Within a group, courses are ordered by enrollment count, then id.
func (e *Engine) CourseEnrollmentStats(ctx context.Context, order CategoryOrder) ([]models.CategoryStats, error) {
	var rows []categoryRow
	if err := e.run(ctx, "CourseEnrollmentStats", "categories", &rows); err != nil {
		return nil, err
	}

	out := make([]models.CategoryStats, 0, len(rows))
	for _, r := range rows {
		stats := models.CategoryStats{
			Category:         r.Category,
			TotalCourses:     r.TotalCourses,
			TotalEnrollments: r.TotalEnrollments,
			AveragePrice:     round2(r.AveragePrice),
			Courses:          make([]models.CourseEnrollment, len(r.Courses)),
		}
		for i, c := range r.Courses {
			stats.Courses[i] = models.CourseEnrollment(c)
		}
		sort.Slice(stats.Courses, func(i, j int) bool {
			a, b := stats.Courses[i], stats.Courses[j]
			if a.EnrollmentCount != b.EnrollmentCount {
				return a.EnrollmentCount > b.EnrollmentCount
			}
			return a.CourseID < b.CourseID
		})
		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool {
		if order == ByEnrollments && out[i].TotalEnrollments != out[j].TotalEnrollments {
			return out[i].TotalEnrollments > out[j].TotalEnrollments
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// PopularCategories returns the categories with the most enrollments. A
// non-positive limit returns every category.
func (e *Engine) PopularCategories(ctx context.Context, limit int) ([]models.CategoryStats, error) {
	stats, err := e.CourseEnrollmentStats(ctx, ByEnrollments)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
