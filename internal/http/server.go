package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"debtledger/internal/ledger"
	"debtledger/internal/log"
	"debtledger/internal/metrics"
	"debtledger/internal/middleware/ratelimit"
	"debtledger/internal/middleware/security"
	"debtledger/internal/middleware/trace"
	appweb "debtledger/web"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readyTimeout      = 5 * time.Second
	staticMaxAge      = 3600
)

// Options configures NewServer. Store is required.
type Options struct {
	Addr               string
	Store              *ledger.Store
	Logger             *log.Logger
	Metrics            *metrics.Collector
	RateLimitPerMinute int
	// TrustedProxies extends the default proxy networks (CIDR or IP).
	TrustedProxies []string
	// Ready, when set, is consulted by /readyz.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	store     *ledger.Store
	logger    *log.Logger
	metrics   *metrics.Collector
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	ready     func(ctx context.Context) error
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.New()
	}

	s := &Server{
		store:    opts.Store,
		logger:   logger.WithComponent(log.ComponentHTTP),
		metrics:  collector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		ready:    opts.Ready,
		started:  time.Now(),
	}

	for _, p := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(p); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "proxy", p, log.FieldError, err)
		}
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP, func(r *http.Request, status int, elapsed time.Duration) {
		s.metrics.ObserveHTTP(r.Method, routePattern(r), status, elapsed)
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(headers.Middleware)
	r.Use(s.detector.Middleware(s.onSuspicious))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(staticMaxAge)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)

		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/aggregates", s.handleAggregates)
		r.Get("/export", s.handleExport)
		r.Get("/export.xlsx", s.handleExportWorkbook)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

			r.Post("/expenses", s.handleAddExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Post("/payments", s.handleAddPayment)
			r.Delete("/payments/{id}", s.handleDeletePayment)
			r.Post("/reset-month", s.handleResetMonth)
			r.Post("/clear", s.handleClearAll)
			r.Put("/salary", s.handleSetSalary)
			r.Put("/initial-debt", s.handleSetInitialDebt)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

func (s *Server) onRateLimited(r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
}

func (s *Server) onSuspicious(r *http.Request) {
	s.metrics.Suspicious()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
