package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nulljobs-api/internal/application/session"
	"github.com/nulljobs-api/internal/application/user"
	"github.com/nulljobs-api/internal/application/verification"
	"github.com/nulljobs-api/internal/config"
	"github.com/nulljobs-api/internal/transport/http/handler"
	appmiddleware "github.com/nulljobs-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verificationSvc := verification.NewService(verification.ServiceDeps{
		UserRepo: deps.UserRepo,
		Mailer:   deps.Mailer,
		Tokens:   deps.JWTProvider,
		DryRun:   cfg.DryRun,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:     deps.UserRepo,
		Tokens:       deps.JWTProvider,
		Denylist:     deps.DenylistRepo,
		Verification: verificationSvc,
		Google:       deps.Google,
	})
	userSvc := user.NewService(deps.UserRepo)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc, verificationSvc)
	verifyH := handler.NewVerificationHandler(verificationSvc, sessionSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/accounts/register", userH.Register)
		r.With(sensitiveRL.Limit).Post("/accounts/login", sessionH.Login)
		r.Post("/accounts/token/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/accounts/google/login", sessionH.GoogleLogin)

		// OTP challenge completion — the guest token rides the query string.
		r.With(sensitiveRL.Limit).Post("/accounts/otp/verify", verifyH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/accounts/password-reset", verifyH.RequestReset)
		r.With(sensitiveRL.Limit).Post("/accounts/password-reset/verify", verifyH.VerifyReset)
		r.With(sensitiveRL.Limit).Post("/accounts/password-reset/confirm", verifyH.ConfirmReset)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/accounts/profile", userH.Profile)
			r.Delete("/accounts/profile", userH.Deactivate)
			r.Post("/accounts/logout", sessionH.Logout)
			r.Post("/accounts/password-change", verifyH.RequestChange)
			r.Post("/accounts/password-change/confirm", verifyH.ConfirmChange)

			// Moderator-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireModerator)

				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
