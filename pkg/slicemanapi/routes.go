package slicemanapi

import "net/http"

func (s *Server) registerRoutes() {
	s.Mux.HandleFunc("GET /health", s.handleHealth)
	s.Mux.HandleFunc("GET /metrics", s.Metrics.PrometheusHandler().ServeHTTP)

	s.Mux.HandleFunc("POST /api/v1/vops", s.handleActivate)
	s.Mux.HandleFunc("GET /api/v1/vops", s.handleList)
	s.Mux.HandleFunc("GET /api/v1/vops/{id}", s.handleGet)
	s.Mux.HandleFunc("DELETE /api/v1/vops/{id}", s.handleDeactivate)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
