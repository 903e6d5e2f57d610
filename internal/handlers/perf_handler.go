package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jas-4484/eduhub/internal/analytics"
	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/perf"
	"github.com/jas-4484/eduhub/internal/store"
)

type PerfHandler struct {
	base
	monitor *perf.Monitor
}

func NewPerfHandler(m *perf.Monitor, timeout time.Duration, logger *slog.Logger) *PerfHandler {
	return &PerfHandler{base: base{timeout: timeout, logger: logger}, monitor: m}
}

// analyzeRequest names either a report plan or a collection with an
// extended-JSON find filter.
type analyzeRequest struct {
	Plan       string          `json:"plan" validate:"required_without=Collection"`
	Collection string          `json:"collection" validate:"omitempty,oneof=users courses enrollments lessons assignments submissions"`
	Filter     json.RawMessage `json:"filter"`
}

func (req analyzeRequest) target() (string, store.ExplainTarget, error) {
	if req.Plan != "" {
		plan, ok := analytics.PlanFor(req.Plan)
		if !ok {
			return "", store.ExplainTarget{}, errors.Wrapf(errors.ErrInvalidArgument, "unknown plan %q", req.Plan)
		}
		return plan.Collection, store.ExplainTarget{Pipeline: plan.Pipeline}, nil
	}

	filter := bson.D{}
	if len(req.Filter) > 0 {
		if err := bson.UnmarshalExtJSON(req.Filter, false, &filter); err != nil {
			return "", store.ExplainTarget{}, errors.Wrapf(errors.ErrInvalidArgument, "filter: %v", err)
		}
	}
	return req.Collection, store.ExplainTarget{Filter: filter}, nil
}

// Analyze explains one read and reports whether it used an index.
func (h *PerfHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	collection, target, err := req.target()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	report, err := h.monitor.Analyze(ctx, collection, target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Plans lists the report plans Analyze accepts.
func (h *PerfHandler) Plans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analytics.PlanNames())
}
