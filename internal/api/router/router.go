package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/dentaai-platform/internal/appointments"
	"github.com/wolfman30/dentaai-platform/internal/assistant"
	"github.com/wolfman30/dentaai-platform/internal/auth"
	"github.com/wolfman30/dentaai-platform/internal/booking"
	"github.com/wolfman30/dentaai-platform/internal/clinic"
	"github.com/wolfman30/dentaai-platform/internal/compliance"
	httpmiddleware "github.com/wolfman30/dentaai-platform/internal/http/middleware"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/internal/patients"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration. Nil handlers are simply not mounted.
type Config struct {
	Logger *logging.Logger

	Clinic       *clinic.Handler
	Dashboard    *clinic.DashboardHandler
	Booking      *booking.Handler
	Appointments *appointments.Handler
	Patients     *patients.Handler
	Assistant    *assistant.Handler
	Auth         *auth.Handler
	Audit        *compliance.Handler

	// Sessions guards every /api/admin route except login.
	Sessions httpmiddleware.SessionVerifier

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck

	// Per-IP limits for login and the assistant endpoints. Zero disables.
	LoginRatePerSecond     float64
	LoginBurst             int
	AssistantRatePerSecond float64
	AssistantBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	loginLimit := limiter(cfg.LoginRatePerSecond, cfg.LoginBurst)
	assistantLimit := limiter(cfg.AssistantRatePerSecond, cfg.AssistantBurst)

	r.Route("/api", func(api chi.Router) {
		if cfg.Clinic != nil {
			api.Mount("/", cfg.Clinic.PublicRoutes())
		}
		if cfg.Booking != nil {
			api.Mount("/booking", cfg.Booking.Routes())
			api.Post("/appointments", cfg.Booking.Reserve)
		}
		if cfg.Assistant != nil {
			api.With(assistantLimit).Mount("/assistant", cfg.Assistant.PublicRoutes())
			api.Mount("/blog", cfg.Assistant.BlogRoutes())
		}

		api.Route("/admin", func(admin chi.Router) {
			if cfg.Auth != nil {
				admin.With(loginLimit).Post("/login", cfg.Auth.Login)
			}
			if cfg.Sessions == nil {
				return
			}
			admin.Group(func(protected chi.Router) {
				protected.Use(httpmiddleware.AdminSession(cfg.Sessions, logger))
				if cfg.Auth != nil {
					protected.Post("/logout", cfg.Auth.Logout)
				}
				if cfg.Dashboard != nil {
					protected.Get("/dashboard", cfg.Dashboard.GetDashboard)
				}
				if cfg.Appointments != nil {
					protected.Mount("/appointments", cfg.Appointments.Routes())
				}
				if cfg.Patients != nil {
					protected.Mount("/patients", cfg.Patients.Routes())
				}
				if cfg.Clinic != nil {
					protected.Mount("/", cfg.Clinic.AdminRoutes())
				}
				if cfg.Assistant != nil {
					protected.Mount("/ai-logs", cfg.Assistant.AdminRoutes())
				}
				if cfg.Audit != nil {
					protected.Get("/audit", cfg.Audit.ListEvents)
				}
			})
		})
	})

	return r
}

func limiter(perSecond float64, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httpmiddleware.RateLimit(httpmiddleware.NewRateLimiter(perSecond, burst))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers 200 {"status":"ok"} when every check passes and 503
// {"status":"degraded"} otherwise.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if len(checks) == 0 {
			respond.JSON(w, http.StatusOK, resp)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp.Checks = make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		respond.JSON(w, status, resp)
	}
}
