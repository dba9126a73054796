package linkdbapi

import (
	"encoding/json"
	"net/http"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// createLinkRequest pairs the link's fields with the slot-grid width it
// should be provisioned with, since model.Link's Slots are store-managed
// and never supplied by the caller.
type createLinkRequest struct {
	model.Link
	NumSlots int `json:"num_slots"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	link := req.Link
	if err := apiserver.ValidateLink(&link); err != nil {
		apiserver.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NumSlots <= 0 {
		apiserver.WriteError(w, http.StatusBadRequest, "num_slots must be positive")
		return
	}
	if err := s.svc.CreateLink(&link, req.NumSlots); err != nil {
		apiserver.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusCreated, link)
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.svc.ListLinks()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, links)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteLink(id); err != nil {
		apiserver.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFrequencies returns a link's raw slot list alongside its
// utilization fraction, restored from original_source's
// get_link_utilization (SPEC_FULL §9).
func (s *Server) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	linkID := r.PathValue("link_id")
	links, err := s.svc.ListLinks()
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var found *model.Link
	for i := range links {
		if links[i].ID == linkID {
			found = &links[i]
			break
		}
	}
	if found == nil {
		apiserver.WriteError(w, http.StatusNotFound, "link not found: "+linkID)
		return
	}
	util, err := s.svc.Utilization(linkID)
	if err != nil {
		apiserver.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apiserver.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"link_id":     linkID,
		"slots":       found.Slots,
		"utilization": util,
	})
}
