// Package diagserver exposes the last compilation's structured
// error/ambiguity report as JSON over HTTP, for editor tooling, routing
// endpoints with go-chi/chi/v5.
package diagserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Report is the JSON shape of one module's last compilation outcome.
type Report struct {
	Module    string    `json:"module"`
	Success   bool      `json:"success"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
	Expected  []string  `json:"expected,omitempty"`
	Ambiguous []string  `json:"ambiguous_sends,omitempty"`
	Finished  time.Time `json:"finished"`
}

// Server serves the most recent Report for each module compiled in this
// process, refreshed by calling Publish after every compile.
type Server struct {
	mu      sync.RWMutex
	reports map[string]Report
	router  chi.Router
}

// New constructs a diagnostics server with its routes mounted.
func New() *Server {
	s := &Server{reports: make(map[string]Report)}
	r := chi.NewRouter()
	r.Get("/modules", s.handleList)
	r.Get("/modules/{name}", s.handleOne)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Publish records module's latest compilation report, replacing any
// prior one.
func (s *Server) Publish(r Report) {
	r.Finished = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.Module] = r
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleOne(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	s.mu.RLock()
	r, ok := s.reports[name]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no report for module "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(r)
}
