package linkdbapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

func (s *Server) handleCreateInterface(w http.ResponseWriter, r *http.Request) {
	var iface model.Interface
	if err := json.NewDecoder(r.Body).Decode(&iface); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := apiserver.ValidateInterface(&iface); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.CreateInterface(&iface); err != nil {
		apiserver.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, iface)
}

type reserveRequest struct {
	VOpID string `json:"vop_id"`
}

func (s *Server) handleReserveInterface(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.VOpID == "" {
		apiserver.WriteError(w, http.StatusBadRequest, "vop_id is required")
		return
	}
	if err := s.svc.ReserveInterface(id, req.VOpID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, linkdb.ErrInterfaceUnavail) {
			status = http.StatusConflict
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	s.Metrics.IncReservedIf()
	apiserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "reserved"})
}

func (s *Server) handleReleaseInterface(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.svc.ReleaseInterface(id, req.VOpID); err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	s.Metrics.DecReservedIf()
	apiserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "released"})
}
