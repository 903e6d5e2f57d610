package analytics

import (
	"context"
	"sort"

	"github.com/jas-4484/eduhub/internal/models"
)

type instructorRow struct {
	InstructorID     string     `bson:"_id"`
	TotalCourses     int        `bson:"totalCourses"`
	TotalEnrollments int        `bson:"totalEnrollments"`
	TotalRevenue     float64    `bson:"totalRevenue"`
	StudentIDs       [][]string `bson:"studentIds"`
	Courses          []struct {
		CourseID    string  `bson:"courseId"`
		Title       string  `bson:"title"`
		Enrollments int     `bson:"enrollments"`
		Revenue     float64 `bson:"revenue"`
	} `bson:"courses"`
	Instructor []userRow `bson:"instructor"`
}

// InstructorAnalytics reports every instructor owning a course. Revenue is
// counted once per enrollment at the course's price, and students are counted
// once across all of an instructor's courses. Instructors are ordered by
// revenue, highest first.
func (e *Engine) InstructorAnalytics(ctx context.Context) ([]models.InstructorStats, error) {
	var rows []instructorRow
	if err := e.run(ctx, "InstructorAnalytics", "instructors", &rows); err != nil {
		return nil, err
	}

	out := make([]models.InstructorStats, 0, len(rows))
	for _, r := range rows {
		stats := models.InstructorStats{
			InstructorID:     r.InstructorID,
			InstructorName:   fullName(r.Instructor),
			TotalCourses:     r.TotalCourses,
			TotalEnrollments: r.TotalEnrollments,
			TotalStudents:    len(distinct(r.StudentIDs...)),
			TotalRevenue:     round2(r.TotalRevenue),
			Courses:          make([]models.CourseRevenue, len(r.Courses)),
		}
		for i, c := range r.Courses {
			c.Revenue = round2(c.Revenue)
			stats.Courses[i] = models.CourseRevenue(c)
		}
		sort.Slice(stats.Courses, func(i, j int) bool {
			a, b := stats.Courses[i], stats.Courses[j]
			if a.Revenue != b.Revenue {
				return a.Revenue > b.Revenue
			}
			return a.CourseID < b.CourseID
		})
		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].InstructorID < out[j].InstructorID
	})
	return out, nil
}
