package ctrlapi

import "net/http"

// registerRoutes wires the Controller's REST surface (spec §6) onto the mux.
func (s *Server) registerRoutes() {
	s.Mux.HandleFunc("GET /health", s.handleHealth)
	s.Mux.HandleFunc("GET /metrics", s.Metrics.PrometheusHandler().ServeHTTP)

	s.Mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.Mux.HandleFunc("GET /api/v1/topology/path/{src}/{dst}", s.handlePath)

	s.Mux.HandleFunc("POST /api/v1/connections", s.handleCreateConnection)
	s.Mux.HandleFunc("GET /api/v1/connections", s.handleListConnections)
	s.Mux.HandleFunc("GET /api/v1/connections/{id}", s.handleGetConnection)
	s.Mux.HandleFunc("POST /api/v1/connections/{id}/setup", s.handleSetupConnection)
	s.Mux.HandleFunc("POST /api/v1/connections/{id}/reconfigure", s.handleReconfigureConnection)
	s.Mux.HandleFunc("DELETE /api/v1/connections/{id}", s.handleTeardownConnection)

	s.Mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
