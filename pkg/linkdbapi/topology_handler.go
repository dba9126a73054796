package linkdbapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

func (s *Server) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	topo, err := s.svc.GetTopology()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, topo)
}

// handlePath computes the k-shortest paths between two POPs. k defaults to
// 1 and is overridden by the ?k= query parameter.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	src := r.PathValue("src")
	dst := r.PathValue("dst")
	k := 1
	if v := r.URL.Query().Get("k"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			k = parsed
		}
	}
	paths, err := s.svc.Path(src, dst, k)
	if err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, paths)
}

func (s *Server) handleCreatePOP(w http.ResponseWriter, r *http.Request) {
	var pop model.POP
	if err := json.NewDecoder(r.Body).Decode(&pop); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := apiserver.ValidatePOP(&pop); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.CreatePOP(&pop); err != nil {
		apiserver.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, pop)
}

func (s *Server) handleListPOPs(w http.ResponseWriter, r *http.Request) {
	pops, err := s.svc.ListPOPs()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, pops)
}

func (s *Server) handleDeletePOP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeletePOP(id); err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRouter(w http.ResponseWriter, r *http.Request) {
	var router model.Router
	if err := json.NewDecoder(r.Body).Decode(&router); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := apiserver.ValidateRouter(&router); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.CreateRouter(&router); err != nil {
		apiserver.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, router)
}

func (s *Server) handleListRouters(w http.ResponseWriter, r *http.Request) {
	routers, err := s.svc.ListRouters()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, routers)
}
