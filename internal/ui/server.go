// Package ui provides the browser workbench for a live shader session.
package ui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/internal/ui/router"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Server is the main UI server.
type Server struct {
	engine       *engine.Engine
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	isDev        bool
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Engine *engine.Engine
	Port   int
	// Watch feeds edits of the shader files into the session.
	Watch bool
	// SessionSecret signs the per-browser cookie. A random one is generated
	// when empty.
	SessionSecret string
	// Dev enables the hot reload endpoints.
	Dev    bool
	Logger *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
	}
	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		engine:       cfg.Engine,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watch:        cfg.Watch,
		isDev:        cfg.Dev,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Handler builds the HTTP handler with all routes and middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(s.logger),
	)

	if err := router.SetupRoutes(r, s.engine, s.sessionStore, s.notifier, s.isDev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is canceled.
// The engine must be running; Serve does not start it.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until the context is canceled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		_ = ln.Close()
		return err
	}

	s.logger.Info("starting UI server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.engine.Watch(egctx, s.editorChanged)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// editorChanged tells connected browsers to reload the editor text.
func (s *Server) editorChanged(stage core.Stage) {
	s.logger.Debug("editor text changed on disk", "stage", stage)
	s.notifier.Broadcast()
}

// Notifier returns the server's notifier for editor updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// requestLogger logs each request through slog. SSE streams are logged
// when they end.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
