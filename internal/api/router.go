package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/metrics"
	"github.com/teampulse/pulse/internal/ratelimit"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router. Metrics, Limiter and
// DB are optional.
type RouterDeps struct {
	Users     UserService
	Companies CompanyService
	Teams     TeamService
	Moods     MoodService
	Integrity Integrity

	Tokens   auth.TokenDecoder
	Accounts auth.AccountLookup

	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	DB             Pinger
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)

	var (
		onAuthFail []func(string)
		onReject   []func()
		onSuccess  func(string)
		onCreated  func()
	)
	if m := deps.Metrics; m != nil {
		r.Use(metricsMiddleware(m))
		r.Use(withErrorHook(m.IncAppError))
		onAuthFail = append(onAuthFail, m.IncAuthFailure)
		onReject = append(onReject, m.IncRateLimitRejection)
		onSuccess = m.IncAuthSuccess
		onCreated = m.IncMoodEntryCreated
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found."})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed."})
	})

	authn := auth.Authenticate(deps.Tokens, onAuthFail...)
	account := auth.RequireAccount(deps.Accounts, onAuthFail...)
	admin := auth.RequireRole(auth.RoleAdmin, deps.Accounts, onAuthFail...)

	authH := newAuthHandler(deps.Users, onSuccess)
	companies := newCompaniesHandler(deps.Companies)
	teams := newTeamsHandler(deps.Teams, deps.Integrity)
	users := newUsersHandler(deps.Users, deps.Integrity)
	moods := newMoodHandler(deps.Moods, onCreated)

	r.Get("/health", healthHandler(deps.DB))
	if m := deps.Metrics; m != nil {
		r.Handle("/metrics", m.Exposition())
		r.Get("/metrics/summary", m.Handler())
	}

	r.Route("/api", func(ar chi.Router) {
		ar.Route("/auth", func(ar chi.Router) {
			ar.Group(func(g chi.Router) {
				if deps.Limiter != nil {
					g.Use(ratelimit.Middleware(deps.Limiter, onReject...))
				}
				g.Post("/signup", authH.Signup)
				g.Post("/login", authH.Login)
			})
			ar.Group(func(g chi.Router) {
				g.Use(authn, account)
				g.Get("/me", authH.Me)
				g.Get("/verify", authH.Verify)
			})
		})

		ar.Post("/companies", companies.Create)
		ar.Get("/companies/{id}", companies.Get)

		// Everything below is scoped to the caller's company.
		ar.Group(func(g chi.Router) {
			g.Use(authn, account)

			g.Get("/teams", teams.List)
			g.Post("/teams", teams.Create)
			g.Get("/teams/{id}", teams.Get)
			g.With(admin).Put("/teams/{id}", teams.Update)
			g.With(admin).Delete("/teams/{id}", teams.Delete)

			g.With(admin).Get("/moodentries", moods.List)
			g.Post("/moodentries", moods.Create)
			g.Get("/moodentries/today", moods.Today)
			g.Get("/moodentries/user/{userId}", moods.ListByUser)
			g.Get("/moodentries/user/{userId}/today", moods.UserToday)
			g.Get("/moodentries/team/{id}", moods.ListByTeam)
			g.Get("/moodentries/{id}", moods.Get)

			g.Route("/users", func(ur chi.Router) {
				ur.Use(admin)
				ur.Get("/", users.List)
				ur.Get("/{id}", users.Get)
				ur.Put("/{id}", users.Update)
				ur.Delete("/{id}", users.Delete)
			})
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				slog.Warn("health check: database unreachable", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
