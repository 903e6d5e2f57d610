package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jas-4484/eduhub/internal/models"
	"github.com/jas-4484/eduhub/internal/query"
	"github.com/jas-4484/eduhub/internal/records"
)

type CourseHandler struct {
	base
	query   *query.Service
	records *records.Writer
}

func NewCourseHandler(q *query.Service, w *records.Writer, timeout time.Duration, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{base: base{timeout: timeout, logger: logger}, query: q, records: w}
}

type priceRangeParams struct {
	Min float64 `validate:"gte=0"`
	Max float64 `validate:"gte=0,gtefield=Min"`
}

type listParams struct {
	Category string   `validate:"required_without=Tags"`
	Tags     []string `validate:"required_without=Category"`
}

// GetCourses lists the courses of one category, or those carrying any of
// the given tags.
func (h *CourseHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	p := listParams{Category: r.URL.Query().Get("category"), Tags: listParam(r, "tags")}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	var (
		courses []models.Course
		err     error
	)
	if len(p.Tags) > 0 {
		courses, err = h.query.CoursesWithTags(ctx, p.Tags, visibility(r))
	} else {
		courses, err = h.query.CoursesByCategory(ctx, p.Category, visibility(r))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) PriceRange(w http.ResponseWriter, r *http.Request) {
	var p priceRangeParams
	var err error
	if p.Min, err = floatParam(r, "min", 0); err != nil {
		h.writeError(w, r, err)
		return
	}
	if p.Max, err = floatParam(r, "max", 0); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	courses, err := h.query.CoursesByPriceRange(ctx, p.Min, p.Max, visibility(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

type searchParams struct {
	Term string `validate:"required"`
}

func (h *CourseHandler) Search(w http.ResponseWriter, r *http.Request) {
	p := searchParams{Term: r.URL.Query().Get("q")}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	courses, err := h.query.SearchCourses(ctx, p.Term, visibility(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	course, err := h.query.CourseWithInstructor(ctx, mux.Vars(r)["courseId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Students(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	students, err := h.query.EnrolledStudents(ctx, mux.Vars(r)["courseId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *CourseHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	lessons, err := h.query.CourseLessons(ctx, mux.Vars(r)["courseId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// CreateCourse handles creating a new course
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var c models.Course
	if err := decode(r, &c); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	created, err := h.records.CreateCourse(ctx, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	if err := h.records.PublishCourse(ctx, mux.Vars(r)["courseId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

func (h *CourseHandler) AddTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	if err := h.records.AddCourseTags(ctx, mux.Vars(r)["courseId"], req.Tags...); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLesson appends a lesson to the course named in the path.
func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	var l models.Lesson
	if err := decode(r, &l); err != nil {
		h.writeError(w, r, err)
		return
	}
	l.CourseID = mux.Vars(r)["courseId"]

	ctx, cancel := h.context(r)
	defer cancel()
	created, err := h.records.AddLesson(ctx, l)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	if err := h.records.DeleteLesson(ctx, mux.Vars(r)["lessonId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
