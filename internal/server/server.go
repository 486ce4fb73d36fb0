package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/config"
	"github.com/sipocalypse/api/internal/leads"
	"github.com/sipocalypse/api/internal/mail"
	"github.com/sipocalypse/api/internal/session"
	"github.com/sipocalypse/api/internal/social"
	"github.com/sipocalypse/api/internal/store"
)

// Deps are the collaborators the routes are built from. Any provider may be
// nil; the routes that need it then answer 500 with a configuration hint.
type Deps struct {
	Config   *config.Config
	Location *time.Location

	// Store is nil when the selected backend is not configured.
	Store *store.Repository

	Sessions *session.Codec
	Gate     *session.Gate

	Text   ai.TextGenerator
	Images ai.ImageGenerator
	Mailer mail.Sender
	Poster social.Poster
	Leads  []leads.Sink

	Limiter *RateLimiter
	Metrics *Metrics
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the HTTP server. mounts run after the application routes and are
// used by main to attach infrastructure handlers such as /healthz.
func New(addr string, logger *slog.Logger, deps Deps, mounts ...func(r chi.Router)) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	addRoutes(r, logger, deps)
	for _, mount := range mounts {
		mount(r)
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
