package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

//go:embed templates/index.html
var templateFS embed.FS

// Resolver answers one message
type Resolver interface {
	Resolve(ctx context.Context, message string) (*core.Turn, error)
}

// Config holds the listener settings
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server is the web front of the chatbot: the HTML form and a JSON API
type Server struct {
	config   Config
	resolver Resolver
	stores   map[pkg.Category]*storage.Store
	page     *template.Template
	router   *mux.Router
	log      zerolog.Logger
}

func New(config Config, resolver Resolver, stores map[pkg.Category]*storage.Store, log zerolog.Logger) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	if config.Addr == "" {
		config.Addr = ":5000"
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config:   config,
		resolver: resolver,
		stores:   stores,
		page:     page,
		router:   mux.NewRouter(),
		log:      log.With().Str("component", "http").Logger(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(requestID, recovery(s.log), accessLog(s.log))

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/mensagem", s.handleMessage).Methods(http.MethodPost)
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
