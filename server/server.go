// Package server exposes the conversation backend over HTTP: a JSON
// instruct endpoint with an SSE streaming variant, a proactive opening
// endpoint that resets the session, plus health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string

	// ReadTimeout bounds reading a request including the body.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. Zero leaves streams
	// unbounded; the orchestrator's model timeout limits the actual work.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds the graceful drain. Defaults to 10s.
	ShutdownTimeout time.Duration

	// H2C additionally serves cleartext HTTP/2.
	H2C bool

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// Version is reported by the info endpoint.
	Version string

	// Logger receives request failures and lifecycle records.
	Logger logging.Logger
}

// Server serves one orchestrator over HTTP.
type Server struct {
	orch            core.Orchestrator
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	h2c             bool
	metrics         http.Handler
	version         string
	logger          *logging.ConversationLogger
}

// New creates a Server over the given orchestrator.
func New(orch core.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Version:         "1.0.0",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		orch:            orch,
		addr:            opts.Addr,
		readTimeout:     opts.ReadTimeout,
		writeTimeout:    opts.WriteTimeout,
		shutdownTimeout: opts.ShutdownTimeout,
		h2c:             opts.H2C,
		metrics:         opts.Metrics,
		version:         opts.Version,
		logger:          logging.NewConversationLogger(opts.Logger).WithComponent("server"),
	}
}

// Handler returns the routed handler, e.g. for tests or embedding.
//
// Method-qualified ServeMux patterns need Go 1.22+; this module builds with
// go 1.21, so the method and exact-path constraints are enforced in wrappers
// with the same observable behavior (405 with Allow on wrong method, GET
// also serving HEAD, "/" matching only the root path).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		requireMethod(http.MethodGet, http.HandlerFunc(s.handleInfo)).ServeHTTP(w, r)
	})
	mux.Handle("/instruct/", requireMethod(http.MethodPost, http.HandlerFunc(s.handleInstruct)))
	mux.Handle("/init/", requireMethod(http.MethodPost, http.HandlerFunc(s.handleInit)))
	mux.Handle("/healthz", requireMethod(http.MethodGet, http.HandlerFunc(s.handleHealth)))
	if s.metrics != nil {
		mux.Handle("/metrics", requireMethod(http.MethodGet, s.metrics))
	}
	return mux
}

// requireMethod rejects other methods with 405 the way a method-qualified
// mux pattern would: Allow header set, and GET implying HEAD.
func requireMethod(method string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	handler := s.Handler()
	if s.h2c {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.addr, "h2c", s.h2c)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server.draining")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
