package analytics

import (
	"context"
	"sort"

	"github.com/jas-4484/eduhub/internal/models"
)

type studentRow struct {
	StudentID        string    `bson:"_id"`
	AverageGrade     *float64  `bson:"averageGrade"`
	GradedCount      int       `bson:"gradedCount"`
	TotalSubmissions int       `bson:"totalSubmissions"`
	CourseIDs        []string  `bson:"courseIds"`
	Student          []userRow `bson:"student"`
}

// StudentPerformance reports, for every student with a submission, the
// average over graded submissions only, the submission counts and the
// distinct courses reached through the submitted assignments. Students are
// ordered by average grade, highest first, with ungraded students last.
func (e *Engine) StudentPerformance(ctx context.Context) ([]models.StudentPerformance, error) {
	var rows []studentRow
	if err := e.run(ctx, "StudentPerformance", "students", &rows); err != nil {
		return nil, err
	}

	out := make([]models.StudentPerformance, 0, len(rows))
	for _, r := range rows {
		courses := distinct(r.CourseIDs)
		p := models.StudentPerformance{
			StudentID:        r.StudentID,
			StudentName:      fullName(r.Student),
			GradedCount:      r.GradedCount,
			TotalSubmissions: r.TotalSubmissions,
			CoursesCount:     len(courses),
			CourseIDs:        courses,
		}
		if r.AverageGrade != nil && r.GradedCount > 0 {
			avg := round2(*r.AverageGrade)
			p.AverageGrade = &avg
		}
		out = append(out, p)
	}

	// Rounding can tie averages the server ordered apart.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AverageGrade, out[j].AverageGrade
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && *a != *b:
			return *a > *b
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}
