package api

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Readiness tracks the dependencies /ready reports on.
type Readiness struct {
	mu     sync.RWMutex
	checks map[string]*dependency
}

type dependency struct {
	ready    bool
	optional bool
}

func NewReadiness() *Readiness {
	return &Readiness{checks: make(map[string]*dependency)}
}

// Register adds a dependency. Optional dependencies never block readiness.
func (r *Readiness) Register(name string, optional bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = &dependency{optional: optional}
}

// Set marks a registered dependency ready or not. Unknown names are registered
// as required.
func (r *Readiness) Set(name string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.checks[name]
	if !ok {
		d = &dependency{}
		r.checks[name] = d
	}
	d.ready = ready
}

// IsReady reports whether a dependency is ready.
func (r *Readiness) IsReady(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.checks[name]
	return ok && d.ready
}

type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckStatus `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func (r *Readiness) evaluate() ReadinessResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resp := ReadinessResponse{Ready: true, Checks: make(map[string]CheckStatus, len(r.checks))}
	var blocking []string
	for name, d := range r.checks {
		switch {
		case d.ready:
			resp.Checks[name] = CheckStatus{Status: "ok", Optional: d.optional}
		case d.optional:
			resp.Checks[name] = CheckStatus{Status: "unavailable", Optional: true}
		default:
			resp.Checks[name] = CheckStatus{Status: "not_ready"}
			resp.Ready = false
			blocking = append(blocking, name)
		}
	}
	if len(blocking) > 0 {
		sort.Strings(blocking)
		resp.NotReadyMsg = "waiting for: " + strings.Join(blocking, ", ")
	}
	return resp
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	resp := s.readiness.evaluate()
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
