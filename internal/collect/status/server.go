// Package status exposes the run's progress over HTTP while a
// collection is in flight: a JSON snapshot on /health and Prometheus
// metrics on /metrics.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot is a point-in-time view of the run.
type Snapshot struct {
	State       string    `json:"state"`
	Processed   int       `json:"processed"`
	TotalUnits  int       `json:"total_units"`
	Failures    int       `json:"failures"`
	Consecutive int       `json:"consecutive_failures"`
	Tripped     bool      `json:"tripped"`
	RowsWritten int       `json:"rows_written"`
	OutputFile  string    `json:"output_file"`
	ObservedAt  time.Time `json:"observed_at"`
}

// SnapshotFunc produces the current snapshot.
type SnapshotFunc func() Snapshot

// Server serves run status over HTTP.
type Server struct {
	snapshot SnapshotFunc
	server   *http.Server
}

// NewServer creates a status server on the given port.
func NewServer(snapshot SnapshotFunc, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		snapshot: snapshot,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	snap.ObservedAt = time.Now()

	w.Header().Set("Content-Type", "application/json")
	if snap.Tripped {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(snap)
}
