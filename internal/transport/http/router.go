package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/devjohxylon/waitlist-api/internal/application/adminauth"
	"github.com/devjohxylon/waitlist-api/internal/application/dispatch"
	"github.com/devjohxylon/waitlist-api/internal/application/waitlist"
	"github.com/devjohxylon/waitlist-api/internal/config"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/devjohxylon/waitlist-api/internal/infrastructure/jwt"
	s3infra "github.com/devjohxylon/waitlist-api/internal/infrastructure/s3"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/smtp"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/sns"
	"github.com/devjohxylon/waitlist-api/internal/pkg/admission"
	"github.com/devjohxylon/waitlist-api/internal/transport/http/handler"
	appmiddleware "github.com/devjohxylon/waitlist-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	WaitlistRepo *dynamo.WaitlistRepo
	AdminKeyRepo *dynamo.AdminKeyRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	Alerts       sns.AlertPublisher
	JWTProvider  *jwtinfra.Provider
	Gate         *admission.Gate
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	waitlistSvc := waitlist.NewService(waitlist.ServiceDeps{
		Repo:    deps.WaitlistRepo,
		Gate:    deps.Gate,
		Mailer:  deps.Mailer,
		Exports: deps.S3Store,
	})
	dispatchSvc := dispatch.NewService(dispatch.ServiceDeps{
		Repo:   deps.WaitlistRepo,
		Mailer: deps.Mailer,
		Alerts: deps.Alerts,
	})
	authDeps := adminauth.ServiceDeps{Repo: deps.AdminKeyRepo}
	if deps.JWTProvider != nil {
		authDeps.Signer = deps.JWTProvider
	}
	authSvc := adminauth.NewService(authDeps)

	var adminMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		adminMw = appmiddleware.AdminAuth(authSvc, deps.JWTProvider)
	} else {
		adminMw = appmiddleware.AdminAuth(authSvc, nil)
	}

	// 5 requests/second, burst of 10, on top of the signup admission gate and
	// in front of the admin login endpoint.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	waitlistH := handler.NewWaitlistHandler(waitlistSvc)
	adminWaitlistH := handler.NewAdminWaitlistHandler(waitlistSvc)
	notifH := handler.NewNotificationHandler(dispatchSvc)
	keysH := handler.NewAdminKeyHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes.
		r.Get("/health-check", healthH.Ping)
		r.Post("/waitlist", waitlistH.Join)
		r.Get("/waitlist/count", waitlistH.Count)

		r.Route("/admin", func(r chi.Router) {
			// Key-for-token exchange is the only unauthenticated admin route.
			r.With(sensitiveRL.Limit).Post("/sessions", keysH.Login)

			r.Group(func(r chi.Router) {
				r.Use(adminMw)

				r.Get("/waitlist", adminWaitlistH.List)
				r.Get("/waitlist/stats", adminWaitlistH.Stats)
				r.Get("/waitlist/codes/{code}", adminWaitlistH.Lookup)
				r.Post("/waitlist/bulk", adminWaitlistH.Bulk)
				r.Post("/waitlist/exports", adminWaitlistH.Export)
				r.Get("/waitlist/exports", adminWaitlistH.DownloadExport)
				r.Delete("/waitlist/exports", adminWaitlistH.DeleteExport)
				r.Patch("/waitlist/{id}", adminWaitlistH.Update)
				r.Delete("/waitlist/{id}", adminWaitlistH.Delete)

				r.Post("/notifications", notifH.Send)

				r.Post("/keys", keysH.Create)
				r.Get("/keys", keysH.List)
				r.Get("/keys/{id}", keysH.Get)
				r.Delete("/keys/{id}", keysH.Revoke)
			})
		})
	})

	return r
}
