// Package slicemanapi exposes the Slice Manager component over HTTP: vOp
// activation, listing, and deactivation (spec §4.2, §6).
package slicemanapi

import (
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/sliceman"
)

// Server wraps the generic apiserver.Server with Slice Manager's service
// and routes.
type Server struct {
	*apiserver.Server
	svc *sliceman.Service
}

// New returns a Slice Manager API server backed by svc.
func New(svc *sliceman.Service, opts apiserver.Options) *Server {
	s := &Server{
		Server: apiserver.New("slice-manager", opts),
		svc:    svc,
	}
	s.registerRoutes()
	return s
}
