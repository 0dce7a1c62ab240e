package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bft-labs/stagehand/pkg/driver"
	"github.com/bft-labs/stagehand/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// StatusFunc reports the current driver state for health checks.
type StatusFunc func() driver.State

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	addr    string
	metrics *Metrics
	status  StatusFunc
	logger  log.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a server listening on addr once started.
func NewServer(addr string, metrics *Metrics, status StatusFunc, logger log.Logger) *Server {
	return &Server{
		addr:    addr,
		metrics: metrics,
		status:  status,
		logger:  log.OrNoop(logger),
	}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := driver.StateStopped
	if s.status != nil {
		state = s.status()
	}
	code := http.StatusOK
	status := "ok"
	if state == driver.StateCrashed {
		code = http.StatusServiceUnavailable
		status = "crashed"
	}
	respondJSON(w, code, map[string]any{
		"status": status,
		"driver": state.String(),
	})
}

// Start binds the listener and serves in the background. The server shuts
// down when ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("observability: server already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("observability: listen %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	s.srv, s.listener, s.done = srv, ln, done

	s.logger.Info("admin server listening", log.String("addr", ln.Addr().String()))

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server failed", log.Err(err))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-done:
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully. Stopping a server that is not
// running is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	if err != nil {
		return fmt.Errorf("observability: shutdown: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
