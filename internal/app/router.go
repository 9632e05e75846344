package app

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-invoice/internal/audit"
	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/customer"
	"github.com/noah-isme/backend-invoice/internal/dashboard"
	"github.com/noah-isme/backend-invoice/internal/health"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/payment"
	"github.com/noah-isme/backend-invoice/internal/ratelimit"
	"github.com/noah-isme/backend-invoice/internal/render"
	"github.com/noah-isme/backend-invoice/internal/security"
	"github.com/noah-isme/backend-invoice/internal/tasks"
	"github.com/noah-isme/backend-invoice/internal/user"
)

// NewRouter mounts every HTTP route of the API.
func NewRouter(d *Dependencies, s *Services) http.Handler {
	cfg := d.Config

	authHandler := &auth.Handler{
		Service: s.Auth,
		Mailer:  s.Mailer,
		Cookie: auth.RefreshCookie{
			Name:     cfg.RefreshCookieName,
			Domain:   cfg.RefreshCookieDomain,
			Secure:   cfg.RefreshCookieSecure,
			SameSite: cfg.RefreshCookieSameSite,
		},
		PublicBaseURL: cfg.PublicBaseURL,
	}
	authMiddleware := auth.Middleware{Service: s.Auth}
	authLimit := ratelimit.Handler{Limiter: s.AuthLimiter, Key: ratelimit.ByIP("auth")}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}

	invoiceHandler := &invoice.Handler{Service: s.Invoices}
	customerHandler := &customer.Handler{Service: s.Customers}
	renderHandler := &render.Handler{Service: s.Render}
	sendHandler := &tasks.Handler{Sender: s.Sender}
	paymentHandler := &payment.Handler{Service: s.Payments}
	dashboardHandler := &dashboard.Handler{Svc: s.Dashboard}
	userHandler := &user.Handler{Service: s.Users}
	auditHandler := audit.Handler{Store: d.Store}
	logsHandler := obs.LogsHandler{Sink: d.Logs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.Track)
	if cfg.TracingEnabled {
		r.Use(obs.Tracing("invoice-api"))
	}
	if cfg.MetricsEnabled {
		r.Use(obs.NewHTTPMetrics(cfg.MetricsNamespace, d.Registerer).Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.HardenResponses(hstsMaxAge(cfg)))
	r.Use(security.LimitBody(cfg.BodyLimitBytes))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.PprofEnabled {
		if h, ok := protectPprof(newPprofMux(), cfg); ok {
			r.Mount("/debug/pprof", h)
		} else {
			d.Logger.Warn().Msg("pprof requested without basic auth credentials in production; not mounted")
		}
	}

	healthHandler := health.Handler{
		Checker:      health.Probe{DB: d.DB, Redis: d.Redis},
		DBTimeout:    cfg.HealthDBTimeout,
		RedisTimeout: cfg.HealthRedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(authLimit.Middleware).Post("/register", authHandler.Register)
			a.With(authLimit.Middleware).Post("/login", authHandler.Login)
			a.With(authLimit.Middleware).Post("/password/forgot", authHandler.Forgot)
			a.Post("/password/reset", authHandler.Reset)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
				protected.Patch("/me", authHandler.UpdateMe)
			})
		})

		v.Post("/webhooks/payment/{provider}", s.Webhook.Handle)

		v.Group(func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)

			p.Get("/dashboard/summary", dashboardHandler.Summary)

			p.Route("/customers", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Post("/", customerHandler.Create)
				c.Get("/{id}", customerHandler.Get)
				c.Put("/{id}", customerHandler.Update)
				c.Delete("/{id}", customerHandler.Delete)
			})

			p.Route("/invoices", func(inv chi.Router) {
				inv.Get("/", invoiceHandler.List)
				inv.With(idem.Middleware).Post("/", invoiceHandler.Create)
				inv.Post("/preview", invoiceHandler.Preview)
				inv.Route("/{id}", func(one chi.Router) {
					one.Get("/", invoiceHandler.Get)
					one.Put("/", invoiceHandler.Update)
					one.Delete("/", invoiceHandler.Delete)
					one.Patch("/status", invoiceHandler.UpdateStatus)
					one.Get("/pdf", renderHandler.PDF)
					one.With(idem.Middleware).Post("/send", sendHandler.Send)
					one.With(idem.Middleware).Post("/payment-link", paymentHandler.CreateLink)
				})
			})

			p.Route("/admin", func(admin chi.Router) {
				admin.Use(authMiddleware.RequireRole(auth.RoleAdmin))
				admin.Get("/users", userHandler.List)
				admin.With(s.Audit.Audited("user.update", "user")).Patch("/users/{id}", userHandler.Update)
				admin.With(s.Audit.Audited("user.delete", "user")).Delete("/users/{id}", userHandler.Delete)
				admin.Get("/audit-logs", auditHandler.List)
				admin.Get("/logs", logsHandler.List)
			})
		})
	})

	return r
}

func hstsMaxAge(cfg *config.Config) time.Duration {
	if cfg.AppEnv == "production" {
		return -1
	}
	return 0
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"http://localhost:5173"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	// chi.Mount keeps the full request path
	const prefix = "/debug/pprof/"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix, pprof.Index)
	mux.HandleFunc(prefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"profile", pprof.Profile)
	mux.HandleFunc(prefix+"symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle(prefix+name, pprof.Handler(name))
	}
	return mux
}

// protectPprof wraps handler in basic auth. Production refuses to serve the
// profiles without both a user and a password.
func protectPprof(handler http.Handler, cfg *config.Config) (http.Handler, bool) {
	user := strings.TrimSpace(cfg.PprofUser)
	pass := strings.TrimSpace(cfg.PprofPass)
	production := cfg.AppEnv == "production"
	if user == "" {
		return handler, !production
	}
	if pass == "" && production {
		return nil, false
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	}), true
}
