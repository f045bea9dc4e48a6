package handlers

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"osld-portal/internal/middleware"
	"osld-portal/internal/service"
)

// Services are the application services exposed over HTTP
type Services struct {
	Auth          *service.AuthService
	Audit         *service.AuditService
	Deadlines     *service.DeadlineService
	Notifier      *service.NotifierService
	Overrides     *service.OverrideService
	Events        *service.EventService
	Submissions   *service.SubmissionService
	Notifications *service.NotificationService
}

// Middleware is the cross-cutting request handling shared by all routes
type Middleware struct {
	Auth        *middleware.AuthMiddleware
	CORS        *middleware.CORSMiddleware
	RateLimiter *middleware.RateLimiter
}

// NewRouter registers every route and wraps the mux in the global middleware
// chain. health reports whether the database is reachable.
func NewRouter(svc Services, mw Middleware, health func() error, version string) http.Handler {
	authHandler := NewAuthHandler(svc.Auth, svc.Audit)
	deadlineHandler := NewDeadlineHandler(svc.Deadlines, svc.Notifier)
	appealHandler := NewAppealHandler(svc.Deadlines, svc.Notifier, svc.Overrides)
	eventHandler := NewEventHandler(svc.Deadlines, svc.Events)
	submissionHandler := NewSubmissionHandler(svc.Deadlines, svc.Submissions)
	notificationHandler := NewNotificationHandler(svc.Deadlines, svc.Notifications)
	auditHandler := NewAuditHandler(svc.Audit)
	organizationHandler := NewOrganizationHandler(svc.Deadlines)

	protected := func(h http.HandlerFunc) http.Handler {
		return mw.Auth.Authenticate(h)
	}
	officeOnly := func(h http.HandlerFunc) http.Handler {
		return mw.Auth.Authenticate(middleware.RequireOrganization(svc.Deadlines.ReviewingOffice())(h))
	}

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected routes
	mux.Handle("GET /api/v1/me", protected(organizationHandler.Me))

	mux.Handle("GET /api/v1/deadlines", protected(deadlineHandler.ListDeadlines))
	mux.Handle("GET /api/v1/deadlines/state", protected(deadlineHandler.GetState))
	mux.Handle("GET /api/v1/deadlines/calendar.ics", protected(deadlineHandler.ExportCalendar))
	mux.Handle("POST /api/v1/deadlines/notify", protected(deadlineHandler.Notify))

	mux.Handle("POST /api/v1/appeals", protected(appealHandler.SubmitAppeal))
	mux.Handle("POST /api/v1/appeals/approve", officeOnly(appealHandler.ApproveAppeal))

	mux.Handle("GET /api/v1/events", protected(eventHandler.ListEvents))
	mux.Handle("POST /api/v1/events/create", officeOnly(eventHandler.CreateEvent))
	mux.Handle("POST /api/v1/events/update", officeOnly(eventHandler.UpdateEvent))
	mux.Handle("POST /api/v1/events/delete", officeOnly(eventHandler.DeleteEvent))

	mux.Handle("GET /api/v1/submissions", protected(submissionHandler.ListSubmissions))
	mux.Handle("POST /api/v1/submissions", protected(submissionHandler.SubmitReport))
	mux.Handle("POST /api/v1/submissions/status", officeOnly(submissionHandler.ReviewSubmission))

	mux.Handle("GET /api/v1/notifications", protected(notificationHandler.ListNotifications))
	mux.Handle("POST /api/v1/notifications/read", protected(notificationHandler.MarkRead))

	// Reviewing office routes
	mux.Handle("GET /api/v1/audit-logs", officeOnly(auditHandler.ListAuditLogs))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := health(); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "error"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": version})
	})

	// Swagger documentation
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		mw.CORS.Handler,
		mw.RateLimiter.Limit,
		middleware.LoggingMiddleware,
	)
}
