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

type AssignmentHandler struct {
	base
	query   *query.Service
	records *records.Writer
}

func NewAssignmentHandler(q *query.Service, w *records.Writer, timeout time.Duration, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{base: base{timeout: timeout, logger: logger}, query: q, records: w}
}

func (h *AssignmentHandler) DueNextWeek(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	assignments, err := h.query.AssignmentsDueNextWeek(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var a models.Assignment
	if err := decode(r, &a); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	created, err := h.records.CreateAssignment(ctx, a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Submit records an ungraded submission for the assignment in the path.
func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var s models.Submission
	if err := decode(r, &s); err != nil {
		h.writeError(w, r, err)
		return
	}
	s.AssignmentID = mux.Vars(r)["assignmentId"]
	s.Grade, s.Feedback, s.GradedDate = nil, nil, nil

	ctx, cancel := h.context(r)
	defer cancel()
	created, err := h.records.Submit(ctx, s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type gradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback string   `json:"feedback"`
}

func (h *AssignmentHandler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
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
	if err := h.records.GradeSubmission(ctx, mux.Vars(r)["submissionId"], *req.Grade, req.Feedback); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
