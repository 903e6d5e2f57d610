package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jas-4484/eduhub/internal/models"
)

// Density selects whether months without enrollments appear in a trend.
type Density int

const (
	Sparse Density = iota
	Dense
)

type month struct {
	year  int
	month time.Month
}

func (m month) next() month {
	if m.month == time.December {
		return month{m.year + 1, time.January}
	}
	return month{m.year, m.month + 1}
}

func (m month) before(o month) bool {
	return m.year < o.year || (m.year == o.year && m.month < o.month)
}

func (m month) trend() models.MonthlyTrend {
	return models.MonthlyTrend{
		Year:   m.year,
		Month:  int(m.month),
		Period: fmt.Sprintf("%04d-%02d", m.year, int(m.month)),
	}
}

type monthlyRow struct {
	ID struct {
		Year  int `bson:"year"`
		Month int `bson:"month"`
	} `bson:"_id"`
	EnrollmentCount      int `bson:"enrollmentCount"`
	ActiveEnrollments    int `bson:"activeEnrollments"`
	CompletedEnrollments int `bson:"completedEnrollments"`
}

// MonthlyTrends buckets enrollments by UTC calendar month of enrollmentDate,
// oldest month first. Dense fills every month between the first and last
// bucket with zero counts.
func (e *Engine) MonthlyTrends(ctx context.Context, density Density) ([]models.MonthlyTrend, error) {
	var rows []monthlyRow
	if err := e.run(ctx, "MonthlyTrends", "monthly", &rows); err != nil {
		return nil, err
	}

	buckets := make(map[month]models.MonthlyTrend, len(rows))
	months := make([]month, 0, len(rows))
	for _, r := range rows {
		m := month{r.ID.Year, time.Month(r.ID.Month)}
		t := m.trend()
		t.EnrollmentCount = r.EnrollmentCount
		t.ActiveEnrollments = r.ActiveEnrollments
		t.CompletedEnrollments = r.CompletedEnrollments
		buckets[m] = t
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].before(months[j]) })

	if density == Dense && len(months) > 1 {
		first, last := months[0], months[len(months)-1]
		months = months[:0]
		for m := first; !last.before(m); m = m.next() {
			months = append(months, m)
		}
	}

	out := make([]models.MonthlyTrend, 0, len(months))
	for _, m := range months {
		if b, ok := buckets[m]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, m.trend())
	}
	return out, nil
}

type engagementRow struct {
	Status          models.EnrollmentStatus `bson:"_id"`
	Count           int                     `bson:"count"`
	AverageProgress float64                 `bson:"averageProgress"`
}

// EngagementByStatus reports enrollment count and average progress per
// status, ordered by status.
func (e *Engine) EngagementByStatus(ctx context.Context) ([]models.StatusEngagement, error) {
	var rows []engagementRow
	if err := e.run(ctx, "EngagementByStatus", "engagement", &rows); err != nil {
		return nil, err
	}

	out := make([]models.StatusEngagement, len(rows))
	for i, r := range rows {
		out[i] = models.StatusEngagement{
			Status:          r.Status,
			Count:           r.Count,
			AverageProgress: round2(r.AverageProgress),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}
