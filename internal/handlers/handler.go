package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/middleware"
	"github.com/jas-4484/eduhub/internal/query"
)

var validate = validator.New()

// base carries what every handler needs: a timeout for store calls and a
// fallback logger.
type base struct {
	timeout time.Duration
	logger  *slog.Logger
}

func (b base) context(r *http.Request) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), b.timeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses. Store failures are
// logged with their cause and reported to the caller without it.
func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *errors.ValidationError
	var ferr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field, Reason: string(verr.Reason)})
	case errors.As(err, &ferr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ferr.Error(), Field: ferr[0].Field(), Reason: ferr[0].Tag()})
	case errors.Is(err, errors.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, errors.ErrNotFound), errors.IsReferenceNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.IsDuplicateKey(err):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		middleware.LoggerFrom(r.Context(), b.logger).ErrorContext(r.Context(), "request failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "invalid request payload: %v", err)
	}
	return nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidArgument, "%s: %q is not a number", name, raw)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidArgument, "%s: %q is not an integer", name, raw)
	}
	return v, nil
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func listParam(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// visibility reads ?all=true, which lifts the published/active filter.
func visibility(r *http.Request) query.Visibility {
	if boolParam(r, "all") {
		return query.IncludeAll
	}
	return query.VisibleOnly
}
