package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jas-4484/eduhub/internal/analytics"
)

type AnalyticsHandler struct {
	base
	engine *analytics.Engine
}

func NewAnalyticsHandler(e *analytics.Engine, timeout time.Duration, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{base: base{timeout: timeout, logger: logger}, engine: e}
}

type categoriesParams struct {
	Sort  string `validate:"omitempty,oneof=category enrollments"`
	Limit int    `validate:"gte=0"`
}

// Categories serves the per-category report. ?sort=enrollments orders by
// popularity and ?limit keeps the top entries of that order.
func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	p := categoriesParams{Sort: r.URL.Query().Get("sort")}
	var err error
	if p.Limit, err = intParam(r, "limit", 0); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	if p.Limit > 0 {
		stats, err := h.engine.PopularCategories(ctx, p.Limit)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	order := analytics.ByCategory
	if p.Sort == "enrollments" {
		order = analytics.ByEnrollments
	}
	stats, err := h.engine.CourseEnrollmentStats(ctx, order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) Students(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	report, err := h.engine.StudentPerformance(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) Instructors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	report, err := h.engine.InstructorAnalytics(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Monthly serves enrollment trends; ?dense=true fills empty months with zeros.
func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	density := analytics.Sparse
	if boolParam(r, "dense") {
		density = analytics.Dense
	}

	ctx, cancel := h.context(r)
	defer cancel()
	report, err := h.engine.MonthlyTrends(ctx, density)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) Engagement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	report, err := h.engine.EngagementByStatus(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
