package linkdbapi

import "net/http"

// registerRoutes wires LinkDB's REST surface (spec §6) onto the mux. The
// named spec endpoints are kept verbatim; router/interface CRUD and
// interface reserve/release are added under the same path conventions
// since LinkDB's public operations include them but spec §6 only
// enumerates the topology/pop/link/connection/frequency/health subset.
func (s *Server) registerRoutes() {
	s.Mux.HandleFunc("GET /health", s.handleHealth)
	s.Mux.HandleFunc("GET /metrics", s.Metrics.PrometheusHandler().ServeHTTP)

	s.Mux.HandleFunc("GET /api/topology", s.handleGetTopology)
	s.Mux.HandleFunc("GET /api/topology/path/{src}/{dst}", s.handlePath)

	s.Mux.HandleFunc("POST /api/pops", s.handleCreatePOP)
	s.Mux.HandleFunc("GET /api/pops", s.handleListPOPs)
	s.Mux.HandleFunc("DELETE /api/pops/{id}", s.handleDeletePOP)

	s.Mux.HandleFunc("POST /api/routers", s.handleCreateRouter)
	s.Mux.HandleFunc("GET /api/routers", s.handleListRouters)

	s.Mux.HandleFunc("POST /api/links", s.handleCreateLink)
	s.Mux.HandleFunc("GET /api/links", s.handleListLinks)
	s.Mux.HandleFunc("DELETE /api/links/{id}", s.handleDeleteLink)

	s.Mux.HandleFunc("POST /api/interfaces", s.handleCreateInterface)
	s.Mux.HandleFunc("POST /api/interfaces/{id}/reserve", s.handleReserveInterface)
	s.Mux.HandleFunc("POST /api/interfaces/{id}/release", s.handleReleaseInterface)

	s.Mux.HandleFunc("POST /api/connections/allocate", s.handleAllocateConnection)
	s.Mux.HandleFunc("POST /api/connections/{id}/activate", s.handleActivateConnection)
	s.Mux.HandleFunc("DELETE /api/connections/{id}", s.handleReleaseConnection)

	s.Mux.HandleFunc("GET /api/frequencies/{link_id}", s.handleFrequencies)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
