package ctrlapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/ctrl"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/qot"
)

// createConnectionRequest mirrors spec §4.3's connection creation inputs.
type createConnectionRequest struct {
	ID            string                 `json:"id"`
	SourcePOP     string                 `json:"source_pop"`
	DestPOP       string                 `json:"dest_pop"`
	BandwidthGbps int                    `json:"bandwidth_gbps"`
	Modulation    string                 `json:"modulation"`
	Endpoints     []model.EndpointConfig `json:"endpoints"`
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	conn, err := s.ctrl.CreateConnection(r.Context(), ctrl.CreateConnectionRequest{
		ID: req.ID, SourcePOP: req.SourcePOP, DestPOP: req.DestPOP,
		BandwidthGbps: req.BandwidthGbps, Modulation: req.Modulation, Endpoints: req.Endpoints,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ctrl.ErrPathInfeasible) {
			status = http.StatusUnprocessableEntity
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	apiserver.WriteJSON(w, http.StatusOK, s.ctrl.List())
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conn, err := s.ctrl.Get(id)
	if err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, conn)
}

func (s *Server) handleSetupConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ctrl.Setup(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ctrl.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ctrl.ErrNotPlanned), errors.Is(err, ctrl.ErrSetupInProgress):
			status = http.StatusConflict
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// reconfigureRequest carries the endpoint tx-power/frequency values the
// caller wants applied; operator-initiated reconfiguration bypasses the
// QoT loop's own endpoint selection.
type reconfigureRequest struct {
	Endpoints []model.EndpointConfig `json:"endpoints"`
	Reason    string                 `json:"reason,omitempty"`
}

func (s *Server) handleReconfigureConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reconfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	err := s.ctrl.Reconfigure(r.Context(), id, req.Endpoints, qot.ReconfigReason{AgentID: "operator", Interface: req.Reason})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ctrl.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ctrl.ErrSetupInProgress):
			status = http.StatusConflict
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTeardownConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ctrl.Teardown(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ctrl.ErrNotFound) {
			status = http.StatusNotFound
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	src := r.PathValue("src")
	dst := r.PathValue("dst")
	k := 1
	if v := r.URL.Query().Get("k"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			k = parsed
		}
	}
	paths, err := s.ctrl.Path(r.Context(), src, dst, k)
	if err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, paths)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	apiserver.WriteJSON(w, http.StatusOK, s.ctrl.Agents())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	apiserver.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"connections": s.ctrl.List(),
		"qot":         s.ctrl.QoTStatus(),
		"agents":      s.ctrl.Agents(),
	})
}
