package diag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivylane/studio-live/internal/dispatch"
	"github.com/ivylane/studio-live/internal/realtime"
	"github.com/ivylane/studio-live/internal/version"
)

// Sources holds the live components the diagnostics server reads from.
// Any nil field is reported as absent rather than an error.
type Sources struct {
	Manager    *realtime.Manager
	Dispatcher *dispatch.Dispatcher
	RefreshSeq func() int64
	Degraded   func() bool
	Notices    func() int
}

// Status is the /statusz payload.
type Status struct {
	Version    string          `json:"version"`
	Connection string          `json:"connection,omitempty"`
	Attempts   int             `json:"reconnect_attempts"`
	Degraded   bool            `json:"degraded"`
	RefreshSeq int64           `json:"refresh_seq"`
	Notices    int             `json:"notices"`
	Dispatch   *dispatch.Stats `json:"dispatch,omitempty"`
}

// Server serves the diagnostics endpoints.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the chi router and the underlying http.Server.
func NewServer(port int, src Sources, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/statusz", func(w http.ResponseWriter, _ *http.Request) {
		st := Status{Version: version.Version}
		if src.Manager != nil {
			st.Connection = string(src.Manager.State())
			st.Attempts = src.Manager.Attempts()
		}
		if src.Dispatcher != nil {
			stats := src.Dispatcher.Stats()
			st.Dispatch = &stats
		}
		if src.RefreshSeq != nil {
			st.RefreshSeq = src.RefreshSeq()
		}
		if src.Degraded != nil {
			st.Degraded = src.Degraded()
		}
		if src.Notices != nil {
			st.Notices = src.Notices()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	})

	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown. It blocks; callers run it in a goroutine
// or an errgroup.
func (s *Server) Start() error {
	s.logger.Info("diagnostics server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
