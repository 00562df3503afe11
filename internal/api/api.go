// Package api provides HTTP handlers and the main API server logic for CardAssist.
//
// It exposes endpoints for classifying queries, chatting with the category
// agents, and submitting consent decisions for proposed actions.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/CardAssist/internal/agents"
	"github.com/BTreeMap/CardAssist/internal/classifier"
	"github.com/BTreeMap/CardAssist/internal/executor"
)

// DefaultAddr is the default listen address of the API server.
const DefaultAddr = ":8000"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the classifier, agent registry, and executor behind HTTP
// endpoints.
type Server struct {
	addr       string
	classifier *classifier.Classifier
	registry   *agents.Registry
	executor   *executor.Executor
}

// NewServer creates an API server over the given pipeline components.
func NewServer(cls *classifier.Classifier, registry *agents.Registry, exec *executor.Executor, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Server.NewServer: server created", "addr", cfg.Addr)

	return &Server{
		addr:       cfg.Addr,
		classifier: cls,
		registry:   registry,
		executor:   exec,
	}
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", s.classifyHandler)
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/consent", s.consentHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: CardAssist API listening", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
