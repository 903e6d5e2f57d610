package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jas-4484/eduhub/internal/analytics"
	"github.com/jas-4484/eduhub/internal/auth"
	"github.com/jas-4484/eduhub/internal/handlers"
	"github.com/jas-4484/eduhub/internal/middleware"
	"github.com/jas-4484/eduhub/internal/perf"
	"github.com/jas-4484/eduhub/internal/query"
	"github.com/jas-4484/eduhub/internal/records"
	"github.com/jas-4484/eduhub/internal/store"
)

type Deps struct {
	Store   store.Store
	Monitor *perf.Monitor
	Auth    *auth.Authenticator
	Logger  *slog.Logger
	Timeout time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func SetupRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware(d.Logger), middleware.Logging(d.Logger))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Server is healthy"))
	}).Methods(http.MethodGet)

	q := query.New(d.Store, d.Clock)
	rw := records.New(d.Store, d.Clock)
	courseHandler := handlers.NewCourseHandler(q, rw, d.Timeout, d.Logger)
	userHandler := handlers.NewUserHandler(q, rw, d.Timeout, d.Logger)
	assignmentHandler := handlers.NewAssignmentHandler(q, rw, d.Timeout, d.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analytics.New(d.Store), d.Timeout, d.Logger)
	perfHandler := handlers.NewPerfHandler(d.Monitor, d.Timeout, d.Logger)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/courses", courseHandler.GetCourses).Methods(http.MethodGet)
	api.HandleFunc("/courses/price-range", courseHandler.PriceRange).Methods(http.MethodGet)
	api.HandleFunc("/courses/search", courseHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/courses/{courseId}", courseHandler.GetCourse).Methods(http.MethodGet)
	api.HandleFunc("/courses/{courseId}/students", courseHandler.Students).Methods(http.MethodGet)
	api.HandleFunc("/courses/{courseId}/lessons", courseHandler.Lessons).Methods(http.MethodGet)
	api.HandleFunc("/users", userHandler.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/recent", userHandler.RecentUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/profile", userHandler.UpdateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/enrollments", userHandler.EnrollCourse).Methods(http.MethodPost)
	api.HandleFunc("/assignments/due-next-week", assignmentHandler.DueNextWeek).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{assignmentId}/submissions", assignmentHandler.Submit).Methods(http.MethodPost)

	staff := api.NewRoute().Subrouter()
	staff.Use(middleware.RequireRole(d.Auth, auth.RoleAdmin, auth.RoleInstructor))
	staff.HandleFunc("/courses", courseHandler.CreateCourse).Methods(http.MethodPost)
	staff.HandleFunc("/courses/{courseId}/publish", courseHandler.Publish).Methods(http.MethodPost)
	staff.HandleFunc("/courses/{courseId}/tags", courseHandler.AddTags).Methods(http.MethodPost)
	staff.HandleFunc("/courses/{courseId}/lessons", courseHandler.AddLesson).Methods(http.MethodPost)
	staff.HandleFunc("/lessons/{lessonId}", courseHandler.DeleteLesson).Methods(http.MethodDelete)
	staff.HandleFunc("/users/students", userHandler.ActiveStudents).Methods(http.MethodGet)
	staff.HandleFunc("/users/{userId}", userHandler.Deactivate).Methods(http.MethodDelete)
	staff.HandleFunc("/enrollments/recent", userHandler.RecentEnrollments).Methods(http.MethodGet)
	staff.HandleFunc("/enrollments/{enrollmentId}/progress", userHandler.UpdateProgress).Methods(http.MethodPut)
	staff.HandleFunc("/enrollments/{enrollmentId}", userHandler.Unenroll).Methods(http.MethodDelete)
	staff.HandleFunc("/assignments", assignmentHandler.CreateAssignment).Methods(http.MethodPost)
	staff.HandleFunc("/submissions/{submissionId}/grade", assignmentHandler.Grade).Methods(http.MethodPut)

	staff.HandleFunc("/analytics/categories", analyticsHandler.Categories).Methods(http.MethodGet)
	staff.HandleFunc("/analytics/students", analyticsHandler.Students).Methods(http.MethodGet)
	staff.HandleFunc("/analytics/instructors", analyticsHandler.Instructors).Methods(http.MethodGet)
	staff.HandleFunc("/analytics/monthly", analyticsHandler.Monthly).Methods(http.MethodGet)
	staff.HandleFunc("/analytics/engagement", analyticsHandler.Engagement).Methods(http.MethodGet)
	staff.HandleFunc("/perf/plans", perfHandler.Plans).Methods(http.MethodGet)
	staff.HandleFunc("/perf/analyze", perfHandler.Analyze).Methods(http.MethodPost)

	return router
}
