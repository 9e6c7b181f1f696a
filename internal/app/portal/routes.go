// Package portal собирает HTTP API портала инкубатора.
package portal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger спецификации.
	_ "github.com/magabrotheeeer/incubator-portal/docs"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/auth/oauth"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/health"
	metriccreate "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/metrics/create"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/metrics/documents"
	metriclist "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/metrics/list"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/metrics/summary"
	obscreate "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/observations/create"
	obslist "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/observations/list"
	obsremove "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/observations/remove"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/observations/respond"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/observations/update"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/action"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/complete"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/getprogress"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/incomplete"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/saveprogress"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/registration/submit"
	userlist "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/users/list"
	userremove "github.com/magabrotheeeer/incubator-portal/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/users/togglestatus"
	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
	authservice "github.com/magabrotheeeer/incubator-portal/internal/services/auth"
	metricservice "github.com/magabrotheeeer/incubator-portal/internal/services/metric"
	observationservice "github.com/magabrotheeeer/incubator-portal/internal/services/observation"
	registrationservice "github.com/magabrotheeeer/incubator-portal/internal/services/registration"
	userservice "github.com/magabrotheeeer/incubator-portal/internal/services/user"
	"github.com/magabrotheeeer/incubator-portal/internal/telemetry"
)

// Deps зависимости маршрутов.
type Deps struct {
	Log    *slog.Logger
	Cookie sessioncookie.Options

	Tokens   middlewarectx.TokenParser
	Accounts middlewarectx.AccountLoader
	Limiter  *middlewarectx.Limiter
	DB       health.Pinger

	OAuthProvider oauth.Provider
	OAuthStates   oauth.StateStore
	AfterLoginURL string

	MaxUploadBytes int64
	UploadsDir     string
	UploadsPrefix  string

	Auth          *authservice.AuthService
	Metrics       *metricservice.MetricService
	Observations  *observationservice.ObservationService
	Registrations *registrationservice.RegistrationService
	Users         *userservice.UserService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	log := d.Log

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		telemetry.InstrumentHandler,
	)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(log, d.DB).ServeHTTP)
		r.Get("/auth/google", oauth.NewRedirect(log, d.OAuthProvider, d.OAuthStates).ServeHTTP)
		r.Get("/auth/google/callback", oauth.NewCallback(log, d.OAuthProvider, d.OAuthStates, d.Auth, d.Cookie, d.AfterLoginURL).ServeHTTP)
		r.Post("/auth/login", login.New(log, d.Auth, d.Cookie).ServeHTTP)
		r.Post("/auth/logout", logout.New(log, d.Cookie).ServeHTTP)

		// Группа с сессией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(d.Tokens, d.Cookie.Name, log))
			r.Use(middlewarectx.AccountMiddleware(d.Accounts, log))
			r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, log))

			r.Get("/auth/session", session.New(log).ServeHTTP)

			r.Get("/metrics", metriclist.New(log, d.Metrics).ServeHTTP)
			r.Post("/metrics", metriccreate.New(log, d.Metrics, d.MaxUploadBytes).ServeHTTP)

			r.Get("/observations", obslist.New(log, d.Observations).ServeHTTP)
			r.Post("/observations/responses", respond.New(log, d.Observations).ServeHTTP)
			r.Put("/observations/{id}", update.New(log, d.Observations).ServeHTTP)

			r.Get("/save-progress", getprogress.New(log, d.Registrations).ServeHTTP)
			r.Post("/save-progress", saveprogress.New(log, d.Registrations).ServeHTTP)
			r.Post("/register-project", submit.New(log, d.Registrations).ServeHTTP)

			// Только администраторы
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(log))

				r.Post("/observations", obscreate.New(log, d.Observations).ServeHTTP)
				r.Delete("/observations/{id}", obsremove.New(log, d.Observations).ServeHTTP)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/metrics", summary.New(log, d.Metrics).ServeHTTP)
					r.Get("/metrics-documents", documents.New(log, d.Metrics).ServeHTTP)
					r.Get("/users", userlist.New(log, d.Users).ServeHTTP)
					r.Delete("/users/{id}", userremove.New(log, d.Users).ServeHTTP)
					r.Patch("/users/{id}/toggle-status", togglestatus.New(log, d.Users).ServeHTTP)
					r.Get("/incomplete-registrations", incomplete.New(log, d.Registrations).ServeHTTP)
					r.Get("/complete-registrations", complete.New(log, d.Registrations).ServeHTTP)
					r.Post("/registration-action", action.New(log, d.Registrations).ServeHTTP)
				})
			})
		})
	})

	r.Handle("/metrics", telemetry.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	files := http.StripPrefix(d.UploadsPrefix, http.FileServer(http.Dir(d.UploadsDir)))
	r.Get(d.UploadsPrefix+"/*", files.ServeHTTP)
}
