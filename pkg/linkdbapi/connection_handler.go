package linkdbapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// allocateRequest is the wire shape for POST /api/connections/allocate.
type allocateRequest struct {
	ConnectionID  string          `json:"connection_id"`
	Path          []model.PathHop `json:"path"`
	SlotsRequired int             `json:"slots_required"`
}

func (s *Server) handleAllocateConnection(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.ConnectionID == "" || len(req.Path) == 0 || req.SlotsRequired <= 0 {
		apiserver.WriteError(w, http.StatusBadRequest, "connection_id, path, and slots_required are required")
		return
	}
	window, err := s.svc.Allocate(r.Context(), req.ConnectionID, req.Path, req.SlotsRequired)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, linkdb.ErrNoSpectrum):
			status = http.StatusConflict
		case errors.Is(err, linkdb.ErrPathInfeasible):
			status = http.StatusUnprocessableEntity
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	s.Metrics.IncActiveConn()
	apiserver.WriteJSON(w, http.StatusCreated, window)
}

// activateRequest carries the link IDs and slot window to promote from
// RESERVED to ACTIVE, for the same reason releaseRequest does: LinkDB holds
// the slot state but the Controller remembers which path and window a
// connection was allocated.
type activateRequest struct {
	LinkIDs []string        `json:"link_ids"`
	Window  model.SlotRange `json:"window"`
}

func (s *Server) handleActivateConnection(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.LinkIDs) == 0 {
		apiserver.WriteError(w, http.StatusBadRequest, "link_ids is required")
		return
	}
	if err := s.svc.Activate(req.LinkIDs, req.Window); err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// releaseRequest carries the link IDs and slot window a connection held,
// since LinkDB's release(connection_id) operation (spec §4.1) needs the
// path to know which links to clear — the caller (Controller) is the one
// that remembers a connection's path and allocated window.
type releaseRequest struct {
	LinkIDs []string        `json:"link_ids"`
	Window  model.SlotRange `json:"window"`
}

func (s *Server) handleReleaseConnection(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	if len(req.LinkIDs) == 0 {
		apiserver.WriteError(w, http.StatusBadRequest, "link_ids is required")
		return
	}
	if err := s.svc.Release(req.LinkIDs, req.Window); err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Metrics.DecActiveConn()
	w.WriteHeader(http.StatusNoContent)
}
