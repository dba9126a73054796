package slicemanapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/sliceman"
)

// activateRequest mirrors spec §4.2's vOp activation inputs.
type activateRequest struct {
	ID          string                `json:"id"`
	Tenant      string                `json:"tenant"`
	Description string                `json:"description,omitempty"`
	Interfaces  []model.InterfaceRef  `json:"interfaces"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := apiserver.ValidateVOp(&model.VOp{ID: req.ID, Interfaces: req.Interfaces}); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	vop, err := s.svc.Activate(r.Context(), sliceman.ActivateRequest{
		ID:          req.ID,
		Tenant:      req.Tenant,
		Description: req.Description,
		Interfaces:  req.Interfaces,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, sliceman.ErrInvalidVOpID):
			status = http.StatusBadRequest
		case errors.Is(err, sliceman.ErrAlreadyActive), errors.Is(err, sliceman.ErrInterfaceUnavailable):
			status = http.StatusConflict
		}
		apiserver.WriteError(w, status, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, vop)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	vops, err := s.svc.List()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, vops)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	vop, err := s.svc.Get(id)
	if err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, vop)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Deactivate(r.Context(), id); err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
