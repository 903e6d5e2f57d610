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

type UserHandler struct {
	base
	query   *query.Service
	records *records.Writer
}

func NewUserHandler(q *query.Service, w *records.Writer, timeout time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{base: base{timeout: timeout, logger: logger}, query: q, records: w}
}

type recentParams struct {
	Months int `validate:"gt=0"`
}

// RecentUsers lists users who joined within the last ?months calendar months.
func (h *UserHandler) RecentUsers(w http.ResponseWriter, r *http.Request) {
	var p recentParams
	var err error
	if p.Months, err = intParam(r, "months", 6); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	users, err := h.query.UsersJoinedWithin(ctx, p.Months, visibility(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) ActiveStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	users, err := h.query.ActiveStudents(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser registers a user. A second user with the same email is a 409.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := decode(r, &u); err != nil {
		h.writeError(w, r, err)
		return
	}
	u.IsActive = true

	ctx, cancel := h.context(r)
	defer cancel()
	created, err := h.records.CreateUser(ctx, u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type profileRequest struct {
	Bio    *string  `json:"bio" validate:"omitempty,max=2000"`
	Avatar *string  `json:"avatar" validate:"omitempty,url"`
	Skills []string `json:"skills" validate:"omitempty,dive,required"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
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
	update := records.ProfileUpdate{Bio: req.Bio, Avatar: req.Avatar, Skills: req.Skills}
	if err := h.records.UpdateProfile(ctx, mux.Vars(r)["userId"], update); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	if err := h.records.DeactivateUser(ctx, mux.Vars(r)["userId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type enrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// EnrollCourse handles student enrollment in a course
func (h *UserHandler) EnrollCourse(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
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
	e, err := h.records.Enroll(ctx, req.StudentID, req.CourseID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *UserHandler) RecentEnrollments(w http.ResponseWriter, r *http.Request) {
	var p recentParams
	var err error
	if p.Months, err = intParam(r, "months", 3); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(p); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	enrollments, err := h.query.EnrollmentsSince(ctx, p.Months)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollments)
}

type progressRequest struct {
	Progress *float64 `json:"progress" validate:"required,gte=0,lte=100"`
}

func (h *UserHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
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
	if err := h.records.UpdateProgress(ctx, mux.Vars(r)["enrollmentId"], *req.Progress); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	if err := h.records.RemoveEnrollment(ctx, mux.Vars(r)["enrollmentId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
