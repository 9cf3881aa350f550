// Package api serves the scenario catalog and live sessions over HTTP and
// streams events over WebSocket.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

// Server routes API requests to the session manager.
type Server struct {
	manager   *orchestrator.Manager
	auth      *Auth
	eventLog  storage.EventLog
	readiness *Readiness
	logger    *slog.Logger
	started   time.Time
}

type Option func(*Server)

func WithAuth(a *Auth) Option {
	return func(s *Server) { s.auth = a }
}

// WithEventLog enables GET /events?source=store.
func WithEventLog(l storage.EventLog) Option {
	return func(s *Server) { s.eventLog = l }
}

func WithReadiness(r *Readiness) Option {
	return func(s *Server) { s.readiness = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(m *orchestrator.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   m,
		readiness: NewReadiness(),
		logger:    slog.Default(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	anyRole := s.auth.RequireAnyRole
	admin := s.auth.RequireAdmin

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.HandleFunc("GET /metrics", s.metricsHandler)
	mux.HandleFunc("GET /events", admin(s.eventsHandler))
	mux.HandleFunc("GET /ws/events", anyRole(s.wsEventsHandler))

	mux.HandleFunc("GET /scenarios", anyRole(s.listScenariosHandler))
	mux.HandleFunc("GET /scenarios/{id}", anyRole(s.getScenarioHandler))
	mux.HandleFunc("GET /scenarios/{id}/graph", anyRole(s.scenarioGraphHandler))

	mux.HandleFunc("POST /sessions", anyRole(s.createSessionHandler))
	mux.HandleFunc("GET /sessions", anyRole(s.listSessionsHandler))
	mux.HandleFunc("GET /sessions/{id}", anyRole(s.getSessionHandler))
	mux.HandleFunc("POST /sessions/{id}/advance", anyRole(s.advanceSessionHandler))
	mux.HandleFunc("POST /sessions/{id}/reset", anyRole(s.resetSessionHandler))
	mux.HandleFunc("DELETE /sessions/{id}", admin(s.deleteSessionHandler))

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// A nil tlsCfg serves plain HTTP.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tlsCfg *tls.Config, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API listening", "addr", addr, "tls", tlsCfg != nil)
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "decisionsim",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// eventsHandler returns buffered events, or persisted ones with ?source=store.
// ?session_id filters and ?limit bounds the result.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sid := q.Get("session_id")
	var evs []events.Event
	if q.Get("source") == "store" {
		if s.eventLog == nil {
			writeError(w, http.StatusNotFound, "no persistent event log configured")
			return
		}
		var err error
		evs, err = s.eventLog.QueryEvents(r.Context(), storage.ClampLimit(limit))
		if err != nil {
			s.logger.Error("event query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "event query failed")
			return
		}
		if sid != "" {
			filtered := evs[:0:0]
			for _, e := range evs {
				if e.SessionID == sid {
					filtered = append(filtered, e)
				}
			}
			evs = filtered
		}
	} else if sid != "" {
		// Filter before limiting so other sessions' traffic cannot push this
		// session's events out of the window.
		evs = events.ForSession(sid)
		if limit > 0 && limit < len(evs) {
			evs = evs[len(evs)-limit:]
		}
	} else {
		evs = events.RecentEvents(limit)
	}
	if evs == nil {
		evs = []events.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}
