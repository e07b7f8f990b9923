// Package server exposes a vector.Store over a JSON HTTP API built with huma
// on a chi router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
	"github.com/viant/vecstore/vector"
)

// Version is reported by the OpenAPI document.
const Version = "0.1.0"

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MatchCount and MatchThreshold fill search requests that omit them and
	// are used as given, zero included.
	MatchCount     int
	MatchThreshold float64
}

// DefaultConfig returns a Config listening on addr with the store's default
// search parameters.
func DefaultConfig(addr string) Config {
	return Config{
		ListenAddr:     addr,
		MatchCount:     vector.DefaultMatchCount,
		MatchThreshold: vector.DefaultMatchThreshold,
	}
}

// Server wraps a chi router with the huma API.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	store  vector.Store
	log    *logrus.Entry
}

// New creates a Server serving store.
func New(cfg Config, store vector.Store, log *logrus.Entry) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, errs.New(errs.CodeServerStartFailure, "listen address is required")
	}
	if store == nil {
		return nil, errs.New(errs.CodeServerStartFailure, "store is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.MatchCount < 0 {
		return nil, errs.Newf(errs.CodeServerStartFailure, "match count must not be negative, got %d", cfg.MatchCount)
	}
	log = logging.OrDiscard(log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	humaConfig := huma.DefaultConfig("vecstore", Version)
	humaConfig.Info.Description = "Embedding record store with cosine similarity search"
	api := humachi.New(r, humaConfig)

	s := &Server{router: r, api: api, cfg: cfg, store: store, log: log}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return errs.Wrapf(err, errs.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithField("addr", ln.Addr().String()).Info("server listening")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return errs.Wrap(err, errs.CodeServerStartFailure, "serving")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, errs.CodeServerShutdownFailure, "shutting down")
	}
	return <-errCh
}

func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(started).String(),
			}).Debug("request")
		})
	}
}

// toHTTPError maps store errors onto huma status errors.
func toHTTPError(err error) error {
	var verr *vector.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Error())
	case errors.Is(err, vector.ErrNotFound):
		return huma.Error404NotFound("record not found")
	}
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		return huma.Error500InternalServerError("internal error")
	}
	return huma.NewError(status, fmt.Sprint(err))
}
