package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas-4484/eduhub/internal/auth"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()
	a := auth.NewAuthenticator("secret", time.Hour)
	instructor, err := a.GenerateJWT("INS_1", auth.RoleInstructor)
	require.NoError(t, err)
	student, err := a.GenerateJWT("STU_1", "student")
	require.NoError(t, err)

	var seen string
	h := RequireRole(a, auth.RoleAdmin, auth.RoleInstructor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "no token", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
		{name: "wrong role", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: student}) }, status: http.StatusForbidden},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: instructor}) }, status: http.StatusOK},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "bearer "+instructor) }, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/analytics/students", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "INS_1", seen)
			}
		})
	}
}

func TestRequestIDAndLogging(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	var requestID string
	h := RequestIDMiddleware(logger)(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = RequestID(r.Context())
		http.Error(w, "missing", http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/x?full=1", nil))
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(HeaderXRequestID))
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"status":404`)
	assert.Contains(t, logs.String(), `"request_id":"`+requestID+`"`)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderXRequestID, "caller-id")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(HeaderXRequestID))
}
